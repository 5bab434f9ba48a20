package api

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/mcquiz/internal/errors"
)

func (a *API) registerRoutes(r gin.IRouter) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Quiz API is running"})
	})

	r.GET("/questions/count", handle(a.CountQuestions, func(c *gin.Context, _ *CountQuestionsRequest) error {
		return nil
	}))

	r.POST("/quiz", handle(a.CreateQuiz, func(c *gin.Context, req *CreateQuizRequest) error {
		// An empty body asks for the default quiz size.
		if err := c.ShouldBindJSON(req); err != nil && !stderrors.Is(err, io.EOF) {
			return err
		}
		return nil
	}))

	r.GET("/quiz/:session_id", handle(a.GetQuiz, func(c *gin.Context, req *GetQuizRequest) error {
		return c.ShouldBindUri(req)
	}))

	r.POST("/submit", handle(a.SubmitQuiz, func(c *gin.Context, req *SubmitRequest) error {
		return c.ShouldBindJSON(req)
	}))

	if a.ls != nil {
		r.GET("/leaderboard", handle(a.GetLeaderboard, func(c *gin.Context, req *GetLeaderboardRequest) error {
			return c.ShouldBindQuery(req)
		}))
	}
}

// handle adapts an API method to a gin handler. bind fills the request from the HTTP request.
func handle[Req, Resp any](call func(context.Context, *Req) (*Resp, error), bind func(*gin.Context, *Req) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			writeError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid request: %v", err),
				errors.WithCause(err),
			))
			return
		}

		resp, err := call(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		// Internal causes are not exposed to clients.
		e = errors.New(errors.CodeInternal)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

// RequestLogger logs every HTTP request with slog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.InfoContext(c.Request.Context(), "api: http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}
