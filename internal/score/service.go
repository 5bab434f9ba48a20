package score

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/session"
)

var hundred = decimal.NewFromInt(100)

type Config struct {
	Registry session.Registry
	EventBus *event.Bus
}

type Service struct {
	registry session.Registry
	eb       *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		registry: c.Registry,
		eb:       c.EventBus,
	}
}

type GradeRequest struct {
	SessionID string
	Answers   []domain.Answer
}

// Grade scores a submission against the answer key of its session. A session can be graded once:
// the session is marked as submitted only after every check passed, later attempts are rejected.
func (s *Service) Grade(ctx context.Context, req GradeRequest) (*domain.GradeResult, error) {
	ss, err := s.registry.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if ss.Submitted {
		return nil, alreadySubmitted(req.SessionID)
	}

	res, err := grade(ss, req.Answers)
	if err != nil {
		return nil, err
	}

	ok, err := s.registry.MarkSubmitted(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another submission for the same session won the race.
		return nil, alreadySubmitted(req.SessionID)
	}

	slog.DebugContext(ctx, "score: graded",
		"session_id", res.SessionID,
		"correct", res.CorrectCount,
		"total", res.TotalQuestions,
	)

	s.eb.Publish(ctx, domain.EventQuizGraded{
		Result: *res,
	})

	return res, nil
}

func grade(ss *domain.Session, answers []domain.Answer) (*domain.GradeResult, error) {
	total := len(ss.Questions)
	if len(answers) != total {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("number of answers doesn't match number of questions: answers=%d, questions=%d", len(answers), total),
			errors.WithDetail("answers", len(answers)),
			errors.WithDetail("questions", total),
			errors.WithCause(domain.ErrAnswerCountMismatch),
		)
	}

	res := &domain.GradeResult{
		SessionID:      ss.SessionID,
		TotalQuestions: total,
		PerQuestion:    make([]domain.QuestionResult, 0, len(answers)),
	}

	for _, a := range answers {
		if a.QuestionID < 0 || a.QuestionID >= total {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid question ID: %d", a.QuestionID),
				errors.WithDetail("question_id", a.QuestionID),
				errors.WithCause(domain.InvalidQuestionIDError{ID: a.QuestionID}),
			)
		}

		correct := ss.Questions[a.QuestionID].Answer
		ok := domain.Label(strings.ToUpper(strings.TrimSpace(a.Label))) == correct
		if ok {
			res.CorrectCount++
		}

		res.PerQuestion = append(res.PerQuestion, domain.QuestionResult{
			QuestionID:   a.QuestionID,
			IsCorrect:    ok,
			CorrectLabel: correct,
		})
	}

	res.ScorePercentage = Percentage(res.CorrectCount, total)
	return res, nil
}

// Percentage returns 100*correct/total rounded to 2 decimal places, or zero when total is zero.
func Percentage(correct, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(correct)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

func alreadySubmitted(sessionID string) error {
	return errors.New(errors.CodeAlreadyExists,
		errors.WithMessagef("quiz already submitted: session=%s", sessionID),
		errors.WithCause(domain.ErrAlreadySubmitted),
	)
}
