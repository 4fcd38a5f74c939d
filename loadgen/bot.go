package loadgen

import (
	"context"

	"github.com/caffinitas/barker/timeline"
)

// FeedReadSize is how many entries a bot asks for when it reads a feed.
const FeedReadSize = 250

// Bot is one simulated user.
type Bot struct {
	username string
	store    Store
	text     *TextSource
}

// NewBot creates a bot acting as username on store.
func NewBot(username string, store Store, text *TextSource) *Bot {
	return &Bot{username: username, store: store, text: text}
}

// Username returns the name the bot acts as.
func (b *Bot) Username() string {
	return b.username
}

// ReadTimeline reads the newest entries of the bot's timeline.
func (b *Bot) ReadTimeline(ctx context.Context) (timeline.Barks, error) {
	return b.store.ReadTimeline(ctx, b.username, FeedReadSize)
}

// ReadOwnFeed reads the newest barks the bot posted.
func (b *Bot) ReadOwnFeed(ctx context.Context) (timeline.Barks, error) {
	return b.store.ReadOwnFeed(ctx, b.username, FeedReadSize)
}

// Bark posts one synthetic message.
func (b *Bot) Bark(ctx context.Context) (timeline.Bark, error) {
	return b.store.Post(ctx, b.username, b.text.Message())
}

// Run is one activation: read the timeline, then post. A failed read ends the activation without posting.
// Failures are already recorded by the store.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.ReadTimeline(ctx); err != nil {
		return err
	}

	_, err := b.Bark(ctx)

	return err
}
