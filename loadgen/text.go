package loadgen

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

const (
	minWords = 5
	maxWords = 24
)

// TextSource synthesizes bark texts of 5 to 24 random words. It is safe for concurrent use.
type TextSource struct {
	faker *gofakeit.Faker
}

// NewTextSource creates a TextSource. A seed of 0 picks a random seed.
func NewTextSource(seed int64) *TextSource {
	return &TextSource{faker: gofakeit.New(seed)}
}

// Message returns a new space separated text.
func (s *TextSource) Message() string {
	count := s.faker.IntRange(minWords, maxWords)

	words := make([]string, count)
	for i := range words {
		words[i] = s.faker.Word()
	}

	return strings.Join(words, " ")
}
