package workers

import (
	"github.com/rs/zerolog/log"
	"minthook/internal/engine/webhooks"
)

// ProcessDueEvents runs a single delivery pass and logs the outcome. The
// error return is reserved for store-level failures; the next scheduled pass
// retries naturally since no event state is left half-written.
func ProcessDueEvents(processor *webhooks.Processor) error {
	stats, err := processor.Run()
	if err != nil {
		log.Error().Err(err).Msg("delivery pass aborted")
		return err
	}

	if stats.Processed > 0 {
		log.Info().
			Int("processed", stats.Processed).
			Int("sent", stats.Sent).
			Int("retried", stats.Retried).
			Int("dead_lettered", stats.DeadLettered).
			Msg("delivery pass completed")
	}
	return nil
}
