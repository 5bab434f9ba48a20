package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/victornm/mcquiz/internal/api"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/leaderboard"
	"github.com/victornm/mcquiz/internal/question"
	"github.com/victornm/mcquiz/internal/quiz"
	"github.com/victornm/mcquiz/internal/score"
	"github.com/victornm/mcquiz/internal/session"
	"github.com/victornm/mcquiz/internal/telemetry"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type RedisConfig struct {
	Addrs  []string
	Pass   string
	Prefix string
}

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Questions struct {
		Path string
	}

	Quiz struct {
		DefaultCount int
	}

	CORS struct {
		AllowedOrigins []string
	}

	Session struct {
		// Backend is one of memory, redis or postgres.
		Backend string
		TTL     time.Duration
	}

	// A Redis client without addresses is disabled.
	Redis struct {
		Session     RedisConfig
		Leaderboard RedisConfig
		Pubsub      RedisConfig
	}

	Postgres struct {
		Session struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}
}

// DefaultConfig serves an in-memory quiz on ports 8080 (HTTP) and 8081 (gRPC).
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Questions.Path = "questionsdata.csv"
	c.Quiz.DefaultCount = 4
	c.CORS.AllowedOrigins = []string{"*"}
	c.Session.Backend = BackendMemory
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			session     redis.UniversalClient
			leaderboard redis.UniversalClient
			pubsub      redis.UniversalClient
		}

		postgres struct {
			session *pgxpool.Pool
		}
	}

	questions *question.Store
	registry  session.Registry

	service struct {
		quiz        *quiz.Service
		score       *score.Service
		leaderboard *leaderboard.Service
	}

	http *http.Server
	grpc *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initQuestions(); err != nil {
		return nil, fmt.Errorf("server: init questions: %w", err)
	}

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initRegistry(); err != nil {
		return nil, fmt.Errorf("server: init registry: %w", err)
	}

	if _, err := telemetry.NewMetrics(prometheus.DefaultRegisterer, s.eb); err != nil {
		return nil, fmt.Errorf("server: init metrics: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initQuestions() error {
	qs, err := question.Load(s.c.Questions.Path)
	if err != nil {
		return err
	}

	if qs.Empty() {
		slog.Warn("server: no questions loaded, quizzes cannot be created", "path", s.c.Questions.Path)
	}

	s.questions = qs
	return nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if s.c.Session.Backend == BackendPostgres {
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, c RedisConfig) (redis.UniversalClient, error) {
		if len(c.Addrs) == 0 {
			return nil, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    c.Addrs,
			Password: c.Pass,
		})

		if err := telemetry.MonitorRedis(r, name); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.session, err = connect("session", s.c.Redis.Session)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.infra.redis.leaderboard, err = connect("leaderboard", s.c.Redis.Leaderboard)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := s.c.Postgres.Session
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return fmt.Errorf("session: %w", err)
	}

	s.infra.postgres.session = db
	return nil
}

func (s *Server) initRegistry() error {
	switch s.c.Session.Backend {
	case "", BackendMemory:
		s.registry = session.NewMemory()

	case BackendRedis:
		if s.infra.redis.session == nil {
			return fmt.Errorf("redis backend needs Redis.Session.Addrs")
		}
		s.registry = session.NewRedis(session.RedisConfig{
			Redis:  s.infra.redis.session,
			Prefix: s.c.Redis.Session.Prefix,
			TTL:    s.c.Session.TTL,
		})

	case BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg := session.NewPostgres(s.infra.postgres.session)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		s.registry = pg

	default:
		return fmt.Errorf("unknown session backend %q", s.c.Session.Backend)
	}

	slog.Info("server: session registry ready", "backend", s.c.Session.Backend)
	return nil
}

func (s *Server) initService() {
	s.service.quiz = quiz.NewService(quiz.Config{
		Questions: s.questions,
		Registry:  s.registry,
		EventBus:  s.eb,
	})

	s.service.score = score.NewService(score.Config{
		Registry: s.registry,
		EventBus: s.eb,
	})

	if s.infra.redis.leaderboard != nil {
		s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
			EventBus: s.eb,
			Redis:    s.infra.redis.leaderboard,
			Prefix:   s.c.Redis.Leaderboard.Prefix,
		})
	}
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery(), api.RequestLogger())
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())

	c := api.Config{
		GRPC:             s.grpc,
		HTTP:             e,
		EventBus:         s.eb,
		Quiz:             s.service.quiz,
		Score:            s.service.score,
		Leaderboard:      s.service.leaderboard,
		PubsubPrefix:     s.c.Redis.Pubsub.Prefix,
		DefaultQuestions: s.c.Quiz.DefaultCount,
	}
	// A nil client in the interface would not compare equal to nil.
	if s.infra.redis.pubsub != nil {
		c.Redis = s.infra.redis.pubsub
	}
	api.New(c)

	h := cors.Handler(cors.Options{
		AllowedOrigins: s.c.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(e)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           h,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port),
			"questions", s.questions.Len(),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	for _, r := range []redis.UniversalClient{s.infra.redis.session, s.infra.redis.leaderboard, s.infra.redis.pubsub} {
		if r != nil {
			_ = r.Close()
		}
	}
	if s.infra.postgres.session != nil {
		s.infra.postgres.session.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
