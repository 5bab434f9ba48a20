package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/question"
	"github.com/victornm/mcquiz/internal/session"
)

type Config struct {
	Questions *question.Store
	Registry  session.Registry
	EventBus  *event.Bus

	// IntN is the random source used to sample questions. Defaults to math/rand/v2.IntN.
	IntN func(n int) int
	// NewSessionID defaults to a random (version 4) UUID.
	NewSessionID func() (string, error)
	Now          func() time.Time
}

type Service struct {
	questions *question.Store
	registry  session.Registry
	eb        *event.Bus

	intn         func(n int) int
	newSessionID func() (string, error)
	now          func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		questions:    c.Questions,
		registry:     c.Registry,
		eb:           c.EventBus,
		intn:         c.IntN,
		newSessionID: c.NewSessionID,
		now:          c.Now,
	}

	if s.newSessionID == nil {
		s.newSessionID = newSessionID
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func newSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreateQuizRequest represents a request to create a new quiz.
type CreateQuizRequest struct {
	// Count is the number of questions wanted. It is clamped to the size of the question bank,
	// a count of zero or less creates an empty quiz.
	Count int
}

// CreateQuiz draws questions from the bank without replacement and stores the answer key
// in a new session. The returned quiz does not contain the answers.
func (s *Service) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*domain.Quiz, error) {
	if s.questions.Empty() {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("questions data not loaded"),
			errors.WithCause(domain.ErrStoreEmpty),
		)
	}

	id, err := s.newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	ss := domain.Session{
		SessionID:  id,
		Questions:  s.questions.Sample(req.Count, s.intn),
		CreateTime: s.now(),
	}

	if err := s.registry.Put(ctx, ss); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	slog.DebugContext(ctx, "quiz: created", "session_id", id, "requested", req.Count, "questions", len(ss.Questions))

	s.eb.Publish(ctx, domain.EventQuizCreated{
		SessionID: id,
		Questions: len(ss.Questions),
	})

	return &domain.Quiz{
		SessionID: id,
		Questions: ss.Views(),
	}, nil
}

type GetQuizRequest struct {
	SessionID string
}

// GetQuiz returns the questions of an existing quiz and whether it was already submitted.
func (s *Service) GetQuiz(ctx context.Context, req GetQuizRequest) (*domain.QuizState, error) {
	ss, err := s.registry.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	return &domain.QuizState{
		SessionID: ss.SessionID,
		Questions: ss.Views(),
		Submitted: ss.Submitted,
	}, nil
}

// CountQuestions returns the size of the question bank.
func (s *Service) CountQuestions() int {
	return s.questions.Len()
}
