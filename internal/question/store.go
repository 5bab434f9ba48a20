package question

import (
	"math/rand/v2"

	"github.com/victornm/mcquiz/internal/domain"
)

// Store is the question bank. It is immutable after construction and safe for concurrent use.
type Store struct {
	questions []domain.Question
}

func NewStore(questions []domain.Question) *Store {
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Store{questions: qs}
}

func (s *Store) Len() int {
	return len(s.questions)
}

func (s *Store) Empty() bool {
	return len(s.questions) == 0
}

// Sample draws min(k, Len()) distinct questions uniformly at random. The order of the
// returned questions is random as well. intn must return a uniform value in [0, n);
// nil means math/rand/v2.IntN.
func (s *Store) Sample(k int, intn func(n int) int) []domain.Question {
	if intn == nil {
		intn = rand.IntN
	}

	n := len(s.questions)
	k = max(0, min(k, n))

	// Partial Fisher-Yates over the indexes, the store itself is never reordered.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	out := make([]domain.Question, 0, k)
	for i := 0; i < k; i++ {
		j := i + intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, s.questions[idx[i]])
	}

	return out
}
