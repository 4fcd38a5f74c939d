package loadgen

import (
	"context"

	"github.com/caffinitas/barker/timeline"
)

// Store is the part of the timeline store the bots use. *postgresengine.Store satisfies it.
type Store interface {
	Follow(ctx context.Context, actor, target string) error
	Post(ctx context.Context, sender, text string) (timeline.Bark, error)
	ReadOwnFeed(ctx context.Context, user string, maxCount int) (timeline.Barks, error)
	ReadTimeline(ctx context.Context, user string, maxCount int) (timeline.Barks, error)
}
