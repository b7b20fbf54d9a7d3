package port

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/gpio"
	"github.com/sweeney/touch-port/internal/logger"
	"github.com/sweeney/touch-port/internal/logic"
)

// listen samples reader every cfg.PollInterval and sends a record for each
// transition. It owns reader and closes it on return. A read error ends the
// loop; there is no retry.
func (a *Actor) listen(ctx context.Context, cfg config.Port, reader gpio.Reader) error {
	defer func() {
		if err := reader.Close(); err != nil {
			logger.ErrorKV(ctx, "close line failed", "line", cfg.LineID, "error", err)
		}
	}()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	return a.poll(ctx, reader, ticker.C)
}

func (a *Actor) poll(ctx context.Context, reader gpio.Reader, tick <-chan time.Time) error {
	detector := logic.NewDetector()

	for {
		level, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		if transition, ok := detector.Process(level); ok {
			rec := a.factory.ForTransition(transition)
			logger.DebugKV(ctx, "transition", "type", rec.Type, "id", rec.ID, "level", level)

			select {
			case a.out <- rec:
			case <-ctx.Done():
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}
