package loadgen_test

import (
	"context"
	"sync"

	"github.com/caffinitas/barker/timeline"
)

type fakeStore struct {
	mu           sync.Mutex
	follows      map[string][]string
	posts        map[string]int
	timelineRead map[string]int
	readErr      error
	postErr      error
	followErr    error
	onPost       func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		follows:      make(map[string][]string),
		posts:        make(map[string]int),
		timelineRead: make(map[string]int),
	}
}

func (s *fakeStore) Follow(_ context.Context, actor, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.followErr != nil {
		return s.followErr
	}

	s.follows[actor] = append(s.follows[actor], target)

	return nil
}

func (s *fakeStore) Post(_ context.Context, sender, text string) (timeline.Bark, error) {
	s.mu.Lock()
	s.posts[sender]++
	onPost := s.onPost
	err := s.postErr
	s.mu.Unlock()

	if onPost != nil {
		onPost()
	}

	if err != nil {
		return timeline.Bark{}, err
	}

	return timeline.Bark{ID: timeline.NewBarkID(), Sender: sender, Text: text}, nil
}

func (s *fakeStore) ReadOwnFeed(_ context.Context, _ string, _ int) (timeline.Barks, error) {
	return timeline.Barks{}, nil
}

func (s *fakeStore) ReadTimeline(_ context.Context, user string, _ int) (timeline.Barks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timelineRead[user]++

	return timeline.Barks{}, s.readErr
}

func (s *fakeStore) totalPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.posts {
		total += n
	}

	return total
}

func (s *fakeStore) followsOf(user string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.follows[user]...)
}
