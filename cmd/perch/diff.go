package main

import (
	"context"
	"log/slog"

	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/platform"
)

// diffSnapshot logs windows that appeared, moved or disappeared since
// known and returns the new index.
func diffSnapshot(ctx context.Context, logger *slog.Logger, known map[platform.WindowID]directory.Record, snap directory.Snapshot) map[platform.WindowID]directory.Record {
	next := make(map[platform.WindowID]directory.Record, len(snap.Records))
	for _, r := range snap.Records {
		next[r.ID] = r
		old, ok := known[r.ID]
		switch {
		case !ok:
			logger.InfoContext(ctx, "window added", "window", r.ID, "class", r.Class, "title", r.Title, "rect", r.Rect.String(), "taskbar", r.IsTaskbar)
		case old.Rect != r.Rect:
			logger.InfoContext(ctx, "window moved", "window", r.ID, "from", old.Rect.String(), "to", r.Rect.String())
		}
	}
	for id, r := range known {
		if _, ok := next[id]; !ok {
			logger.InfoContext(ctx, "window removed", "window", id, "title", r.Title)
		}
	}
	return next
}
