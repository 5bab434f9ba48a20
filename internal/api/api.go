package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/leaderboard"
	"github.com/victornm/mcquiz/internal/quiz"
	"github.com/victornm/mcquiz/internal/score"
)

type Config struct {
	GRPC     *grpc.Server
	HTTP     gin.IRouter
	EventBus *event.Bus
	Quiz     *quiz.Service
	Score    *score.Service

	// Leaderboard is optional, its routes are registered only when set.
	Leaderboard *leaderboard.Service

	// Redis is optional, notifications are published only when set.
	Redis        Redis
	PubsubPrefix string

	// DefaultQuestions is the quiz size used when a request does not specify one.
	DefaultQuestions int
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// API implements QuizServiceServer. The HTTP handlers call the same methods.
type API struct {
	qs *quiz.Service
	ss *score.Service
	ls *leaderboard.Service

	redis  Redis
	prefix string

	defaultQuestions int
}

func New(c Config) *API {
	a := &API{
		qs:               c.Quiz,
		ss:               c.Score,
		ls:               c.Leaderboard,
		redis:            c.Redis,
		prefix:           c.PubsubPrefix,
		defaultQuestions: c.DefaultQuestions,
	}

	if c.GRPC != nil {
		c.GRPC.RegisterService(&quizServiceDesc, a)
	}

	if c.HTTP != nil {
		a.registerRoutes(c.HTTP)
	}

	if a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameQuizGraded, func(ctx context.Context, e event.Event) error {
			return a.PublishQuizGraded(ctx, e.(domain.EventQuizGraded))
		})
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
	}

	return a
}

func (a *API) CreateQuiz(ctx context.Context, req *CreateQuizRequest) (*CreateQuizResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	n := a.defaultQuestions
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}

	q, err := a.qs.CreateQuiz(ctx, quiz.CreateQuizRequest{Count: n})
	if err != nil {
		return nil, err
	}

	return &CreateQuizResponse{
		SessionID: q.SessionID,
		Questions: toQuizViews(q.Questions),
	}, nil
}

func (a *API) GetQuiz(ctx context.Context, req *GetQuizRequest) (*GetQuizResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	q, err := a.qs.GetQuiz(ctx, quiz.GetQuizRequest{SessionID: req.SessionID})
	if err != nil {
		return nil, err
	}

	return &GetQuizResponse{
		SessionID: q.SessionID,
		Questions: toQuizViews(q.Questions),
		Submitted: q.Submitted,
	}, nil
}

func (a *API) SubmitQuiz(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	res, err := a.ss.Grade(ctx, score.GradeRequest{
		SessionID: req.SessionID,
		Answers:   toAnswers(req.Answers),
	})
	if err != nil {
		return nil, err
	}

	return toSubmitResponse(res), nil
}

func (a *API) CountQuestions(_ context.Context, _ *CountQuestionsRequest) (*CountQuestionsResponse, error) {
	return &CountQuestionsResponse{Count: a.qs.CountQuestions()}, nil
}

func (a *API) GetLeaderboard(ctx context.Context, req *GetLeaderboardRequest) (*Leaderboard, error) {
	if a.ls == nil {
		return nil, errors.New(errors.CodeUnavailable, errors.WithMessagef("leaderboard is disabled"))
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	l, err := a.ls.GetLeaderboard(ctx, leaderboard.GetLeaderboardRequest{Limit: req.Limit})
	if err != nil {
		return nil, err
	}

	return toLeaderboard(l), nil
}

// validate checks the binding tags of a request, so gRPC requests get the same checks as HTTP ones.
func validate(req any) error {
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request: %v", err),
			errors.WithCause(err),
		)
	}
	return nil
}
