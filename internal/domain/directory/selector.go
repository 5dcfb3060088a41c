package directory

import (
	"math/rand"
	"sync"
)

// Selector chooses the banker for a new assignment from the branch's staff.
type Selector interface {
	Pick(candidates []int64) int64
}

// RandomSelector picks uniformly at random. The same seed yields the same
// sequence of picks, which keeps assignment deterministic under test.
type RandomSelector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSelector(seed int64) *RandomSelector {
	return &RandomSelector{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandomSelector) Pick(candidates []int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rnd.Intn(len(candidates))]
}

// FirstSelector always returns the first candidate.
type FirstSelector struct{}

func (FirstSelector) Pick(candidates []int64) int64 {
	return candidates[0]
}
