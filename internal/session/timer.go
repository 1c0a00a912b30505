package session

import (
	"context"
	"errors"
	"log"
	"time"
)

// countdown is the cancellable one-second ticker driving a timed session.
// The engine is its single owner: started on start/resume, stopped on
// finish, abandon and engine close. A tick that fires after the session is
// gone is a no-op.
type countdown struct {
	cancel context.CancelFunc
}

func startCountdown(e *Engine) *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if e.Tick() != TimerExpired {
					continue
				}
				// Time is up: force-finish. Losing the race against a manual
				// finish is fine, the session is terminal either way.
				if _, err := e.Finish(ctx, true); err != nil &&
					!errors.Is(err, ErrNoSession) && !errors.Is(err, ErrFinishInProgress) {
					log.Printf("countdown: force finish failed: %v", err)
				}
				return
			}
		}
	}()
	return &countdown{cancel: cancel}
}

func (c *countdown) stop() {
	if c != nil {
		c.cancel()
	}
}
