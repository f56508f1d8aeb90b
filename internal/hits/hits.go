// Package hits counts approximate unique viewers per paste. A viewer is
// counted at most once per dedup window; the counter is advisory and never
// participates in the paste write transaction.
package hits

import (
	"context"
	"time"
)

// DefaultWindow is the unique-viewer dedup window.
const DefaultWindow = 24 * time.Hour

// Counter records and reports unique paste views.
type Counter interface {
	// RecordHit counts the viewer unless already seen within the window, and
	// returns the current aggregate either way.
	RecordHit(ctx context.Context, pasteID int64, viewerKey string) (int64, error)
	// Count returns the aggregate for a paste, zero if never viewed.
	Count(ctx context.Context, pasteID int64) (int64, error)
}
