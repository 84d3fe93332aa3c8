package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/logging"
)

// Check probes one component. A non-nil error marks it unhealthy until the
// next successful probe.
type Check func(ctx context.Context) error

type component struct {
	name    string
	check   Check
	healthy bool
}

// Monitor runs registered health checks on an interval and logs transitions.
type Monitor struct {
	interval time.Duration

	mu         sync.Mutex
	components []*component
	stop       chan struct{}
	done       chan struct{}
}

func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register adds a named check. Components start out healthy.
func (m *Monitor) Register(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, &component{name: name, check: check, healthy: true})
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.runChecks()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) runChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval/2)
	defer cancel()

	m.mu.Lock()
	components := make([]*component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	for _, comp := range components {
		err := comp.check(ctx)
		switch {
		case err != nil && comp.healthy:
			comp.healthy = false
			logging.Error("Watchdog: %s unhealthy: %v", comp.name, err)
		case err == nil && !comp.healthy:
			comp.healthy = true
			logging.Info("Watchdog: %s recovered", comp.name)
		}
	}
}

// Status reports the last observed health per component.
func (m *Monitor) Status() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]bool, len(m.components))
	for _, comp := range m.components {
		status[comp.name] = comp.healthy
	}
	return status
}
