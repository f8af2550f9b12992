package emitter

import (
	"context"
	"log/slog"
	"time"

	"socd/internal/socd"
)

// ReportStatus logs the real and virtual key states every interval until ctx
// is done. It reads through the engine lock, so each line reflects a whole
// batch.
func ReportStatus(ctx context.Context, engine *socd.Engine, interval time.Duration, log *slog.Logger) {
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
			st, v := engine.Snapshot()
			log.Info("key states",
				"real", socd.Virtual(st.Real).String(),
				"virtual", v.String(),
				"last_vertical", st.LastPressed[socd.Vertical].String(),
				"last_horizontal", st.LastPressed[socd.Horizontal].String(),
			)
		}
	}
}
