package dispatcher

import (
	"crypto/tls"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPPool round-robins over a small set of fasthttp clients so bursts of
// punishment calls do not contend on a single connection pool.
type HTTPPool struct {
	clients []*fasthttp.Client
	index   atomic.Uint32
}

func NewHTTPPool(size int) *HTTPPool {
	if size < 1 {
		size = 1
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
	}

	clients := make([]*fasthttp.Client, size)
	for i := range clients {
		clients[i] = &fasthttp.Client{
			MaxConnsPerHost:           128,
			MaxIdleConnDuration:       90 * time.Second,
			ReadTimeout:               5 * time.Second,
			WriteTimeout:              5 * time.Second,
			MaxIdemponentCallAttempts: 1,
			TLSConfig:                 tlsConfig,
		}
	}

	return &HTTPPool{clients: clients}
}

func (hp *HTTPPool) GetClient() *fasthttp.Client {
	n := hp.index.Add(1)
	return hp.clients[int(n)%len(hp.clients)]
}
