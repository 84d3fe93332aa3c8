package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/automod"
	"github.com/kaikybrofc/ayana-bot/internal/bot"
	"github.com/kaikybrofc/ayana-bot/internal/commands"
	"github.com/kaikybrofc/ayana-bot/internal/config"
	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/dispatcher"
	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
	"github.com/kaikybrofc/ayana-bot/internal/ingest"
	"github.com/kaikybrofc/ayana-bot/internal/leveling"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"
	"github.com/kaikybrofc/ayana-bot/internal/notifier"
	"github.com/kaikybrofc/ayana-bot/internal/watchdog"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		fmt.Printf("Config load failed, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
	}

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("logging setup failed: %w", err)
	}

	if cfg.Bot.Token == "" {
		return fmt.Errorf("no bot token configured (set DISCORD_TOKEN)")
	}

	db, err := database.Open(database.Options{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		OpTimeout:    cfg.Database.PoolWait(),
	})
	if err != nil {
		return fmt.Errorf("database open failed: %w", err)
	}
	defer db.Close()
	logging.Info("Database ready at %s", cfg.Database.Path)

	configs := guildconfig.NewStore(db)

	httpPool := dispatcher.NewHTTPPool(cfg.Network.HTTPPoolSize)
	rateLimiter := dispatcher.NewRateLimitMonitor()
	actuator := dispatcher.NewRESTActuator(httpPool, rateLimiter, cfg.Bot.Token, cfg.Network.APIBaseURL)

	mod := moderation.NewService(db, configs, actuator, cfg.Moderation.LockWait())
	levels := leveling.NewService(db)
	detector := automod.NewDetector()

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("session create failed: %w", err)
	}

	notify := notifier.New(session.Discord())
	pipeline := bot.NewPipeline(configs, detector, mod, levels, notify)

	queue := ingest.NewQueue(cfg.Queue.Size, cfg.Queue.Workers, pipeline)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	// Handlers must be attached before the gateway connects.
	session.SetupEventHandlers(queue)

	if err := session.Connect(); err != nil {
		return fmt.Errorf("gateway connect failed: %w", err)
	}
	defer session.Close()

	if _, err := commands.Initialize(session, mod, configs, levels, notify, cfg.Bot.GuildID); err != nil {
		return fmt.Errorf("command registration failed: %w", err)
	}

	monitor := watchdog.NewMonitor(time.Minute)
	monitor.Register("database", db.Ping)
	monitor.Register("event_queue", func(context.Context) error {
		if sat := queue.Saturation(); sat > 0.9 {
			return fmt.Errorf("queue %.0f%% full (%d dropped)", sat*100, queue.Dropped())
		}
		return nil
	})
	monitor.Register("gateway", func(context.Context) error {
		if latency := session.Discord().HeartbeatLatency(); latency > 10*time.Second {
			return fmt.Errorf("heartbeat latency %s", latency)
		}
		return nil
	})
	monitor.Start()

	logging.Info("Bot connected, moderation engine running")

	waitForShutdown()

	logging.Info("Shutdown signal received, closing gateway")
	monitor.Stop()

	// The gateway must stop delivering events before the queue closes, and
	// the workers drain the remaining backlog before ctx is cancelled.
	if err := session.Close(); err != nil {
		logging.Warn("Gateway close failed: %v", err)
	}
	queue.Stop()
	logging.Info("Shutdown complete (%d events dropped over lifetime)", queue.Dropped())
	return nil
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
