package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"minthook/internal/engine/webhooks"
	"minthook/internal/events"
	"minthook/internal/pkg/logger"
	"minthook/internal/platform/config"
	"minthook/internal/platform/database"
	"minthook/internal/platform/repositories"
	"minthook/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Run a single delivery pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	clientRepo := repositories.NewClientRepository(db)
	eventRepo := repositories.NewEventRepository(db)

	processor := webhooks.NewProcessor(
		clientRepo,
		eventRepo,
		webhooks.NewDeliverer(cfg.Webhooks.DeliveryTimeout),
		webhooks.Schedule(cfg.Webhooks.BackoffSchedule),
		cfg.Webhooks.MaxAttempts,
		cfg.Webhooks.BatchSize,
	)

	if *once {
		if err := workers.ProcessDueEvents(processor); err != nil {
			os.Exit(1)
		}
		return
	}

	log.Info().Msg("starting minthook delivery worker")

	stop := make(chan struct{})

	// Chain occurrence listener, when a bus is configured.
	if cfg.NATS.URL != "" {
		sub, err := events.NewNATSSubscriber(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer sub.Close()

		enqueuer := webhooks.NewEnqueuer(clientRepo, eventRepo)
		listener := events.NewListener(sub, enqueuer, cfg.NATS.Subject)
		go func() {
			if err := listener.Run(stop); err != nil {
				log.Error().Err(err).Msg("occurrence listener exited")
			}
		}()
	} else {
		log.Warn().Msg("no NATS url configured, occurrences arrive via the ops API only")
	}

	go runDeliveryLoop(processor, cfg.Webhooks.PollInterval, stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	close(stop)
}

// runDeliveryLoop triggers one bounded pass per tick. Passes run on the loop
// goroutine, so a pass that outlasts the interval delays the next tick rather
// than overlapping it.
func runDeliveryLoop(processor *webhooks.Processor, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			workers.ProcessDueEvents(processor)
		}
	}
}
