package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Barks is an alias type for a slice of Bark.
type Barks = []Bark

// Bark is a post as written by its sender and as read back from a feed or a timeline.
//
// The own-feed entry and every timeline entry created for one post share the same ID, Timestamp and Slice.
type Bark struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// NewBarkID returns a time-ordered identifier for a new post.
func NewBarkID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}
