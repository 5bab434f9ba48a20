package quiz_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/question"
	"github.com/victornm/mcquiz/internal/quiz"
	"github.com/victornm/mcquiz/internal/session"
)

func TestService_CreateQuiz(t *testing.T) {
	type outputs struct {
		quiz     *domain.Quiz
		err      error
		registry *session.Memory
	}

	tests := map[string]struct {
		bank   int
		count  int
		assert func(t *testing.T, out outputs)
	}{
		"should return the requested number of distinct questions": {
			bank:  10,
			count: 4,
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				require.Len(t, out.quiz.Questions, 4)

				texts := make(map[string]bool)
				for i, q := range out.quiz.Questions {
					assert.Equal(t, i, q.QuestionID)
					texts[q.Text] = true
				}
				assert.Len(t, texts, 4, "questions should be distinct")
			},
		},

		"should clamp an over-large request to the bank size": {
			bank:  3,
			count: 10,
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Len(t, out.quiz.Questions, 3)
			},
		},

		"should create an empty quiz for a zero count": {
			bank:  3,
			count: 0,
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Empty(t, out.quiz.Questions)
				assert.Equal(t, 1, out.registry.Len())
			},
		},

		"should fail without creating a session when the bank is empty": {
			bank:  0,
			count: 4,
			assert: func(t *testing.T, out outputs) {
				require.ErrorIs(t, out.err, domain.ErrStoreEmpty)
				assert.Equal(t, errors.CodeUnavailable, errors.Convert(out.err).Code)
				assert.Equal(t, 0, out.registry.Len())
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := session.NewMemory()
			s := makeService(t, tt.bank, withRegistry(r))

			q, err := s.CreateQuiz(context.Background(), quiz.CreateQuizRequest{Count: tt.count})

			tt.assert(t, outputs{quiz: q, err: err, registry: r})
		})
	}
}

func TestService_CreateQuiz_KeepsAnswersServerSide(t *testing.T) {
	r := session.NewMemory()
	s := makeService(t, 10, withRegistry(r))

	q, err := s.CreateQuiz(context.Background(), quiz.CreateQuizRequest{Count: 4})
	require.NoError(t, err)

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(b)), "answer")

	ss, err := r.Get(context.Background(), q.SessionID)
	require.NoError(t, err)
	require.Len(t, ss.Questions, 4)
	for i, v := range q.Questions {
		assert.Equal(t, ss.Questions[i].Text, v.Text)
		assert.NotEmpty(t, ss.Questions[i].Answer)
	}
}

func TestService_CreateQuiz_UniqueSessionIDs(t *testing.T) {
	s := makeService(t, 5)

	seen := make(map[string]bool)
	for range 100 {
		q, err := s.CreateQuiz(context.Background(), quiz.CreateQuizRequest{Count: 1})
		require.NoError(t, err)

		_, err = uuid.Parse(q.SessionID)
		require.NoError(t, err)
		require.False(t, seen[q.SessionID], "duplicate session id %s", q.SessionID)
		seen[q.SessionID] = true
	}
}

func TestService_CreateQuiz_PublishesEvent(t *testing.T) {
	eb := event.NewBus()

	var (
		mu     sync.Mutex
		events []domain.EventQuizCreated
	)
	eb.Subscribe(domain.EventNameQuizCreated, func(_ context.Context, e event.Event) error {
		mu.Lock()
		events = append(events, e.(domain.EventQuizCreated))
		mu.Unlock()
		return nil
	})

	s := makeService(t, 10, withEventBus(eb))
	q, err := s.CreateQuiz(context.Background(), quiz.CreateQuizRequest{Count: 4})
	require.NoError(t, err)

	eb.Stop()

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventQuizCreated{SessionID: q.SessionID, Questions: 4}, events[0])
}

func TestService_GetQuiz(t *testing.T) {
	s := makeService(t, 10)
	ctx := context.Background()

	q, err := s.CreateQuiz(ctx, quiz.CreateQuizRequest{Count: 4})
	require.NoError(t, err)

	got, err := s.GetQuiz(ctx, quiz.GetQuizRequest{SessionID: q.SessionID})
	require.NoError(t, err)
	assert.Equal(t, &domain.QuizState{
		SessionID: q.SessionID,
		Questions: q.Questions,
		Submitted: false,
	}, got)

	_, err = s.GetQuiz(ctx, quiz.GetQuizRequest{SessionID: "unknown"})
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_CountQuestions(t *testing.T) {
	assert.Equal(t, 7, makeService(t, 7).CountQuestions())
	assert.Equal(t, 0, makeService(t, 0).CountQuestions())
}

func makeService(t *testing.T, bank int, opts ...options) *quiz.Service {
	t.Helper()

	c := quiz.Config{
		Questions: question.NewStore(makeQuestions(bank)),
		Registry:  session.NewMemory(),
		EventBus:  event.NewBus(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return quiz.NewService(c)
}

type options func(c *quiz.Config)

func withRegistry(r session.Registry) options {
	return func(c *quiz.Config) {
		c.Registry = r
	}
}

func withEventBus(eb *event.Bus) options {
	return func(c *quiz.Config) {
		c.EventBus = eb
	}
}

func makeQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := range n {
		qs = append(qs, domain.Question{
			Text:    fmt.Sprintf("question %d", i),
			Options: [4]string{"w", "x", "y", "z"},
			Answer:  domain.Labels[i%domain.OptionCount],
		})
	}
	return qs
}
