package settings

import (
	"context"
	"time"
)

// BindUnload saves the settings once ctx is done, the Go counterpart of a
// page's beforeunload handler. The save runs on a fresh context bounded by
// timeout (no bound when timeout <= 0). The returned channel yields the save
// result and is then closed.
func (s *Store) BindUnload(ctx context.Context, timeout time.Duration) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		<-ctx.Done()

		saveCtx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(saveCtx, timeout)
			defer cancel()
		}

		err := s.Save(saveCtx)
		if err != nil {
			s.logger.Error("Failed to save settings on unload", "error", err)
		} else {
			s.logger.Info("Settings saved on unload", "key", s.key)
		}
		done <- err
	}()
	return done
}

// Autosave saves every interval until ctx is done. Failures are logged and the
// next tick tries again.
func (s *Store) Autosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				s.logger.Warn("Autosave failed", "error", err)
			}
		}
	}
}
