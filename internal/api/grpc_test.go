package api_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/victornm/mcquiz/internal/api"
	"github.com/victornm/mcquiz/internal/telemetry"
)

func TestGRPC_QuizLifecycle(t *testing.T) {
	f, c := makeGRPCClient(t, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := c.CountQuestions(ctx, &api.CountQuestionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10, count.Count)

	n := 4
	created, err := c.CreateQuiz(ctx, &api.CreateQuizRequest{NumQuestions: &n})
	require.NoError(t, err)
	require.Len(t, created.Questions, 4)

	got, err := c.GetQuiz(ctx, &api.GetQuizRequest{SessionID: created.SessionID})
	require.NoError(t, err)
	assert.Equal(t, created.Questions, got.Questions)
	assert.False(t, got.Submitted)

	key := f.key(t, created.SessionID)
	req := &api.SubmitRequest{SessionID: created.SessionID}
	for i, l := range key {
		req.Answers = append(req.Answers, api.Answer{QuestionID: &i, SelectedLabel: l})
	}

	res, err := c.SubmitQuiz(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 4, res.CorrectCount)
	assert.Equal(t, 100.0, res.ScorePercentage)

	_, err = c.SubmitQuiz(ctx, req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestGRPC_Errors(t *testing.T) {
	f, c := makeGRPCClient(t, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.GetQuiz(ctx, &api.GetQuizRequest{SessionID: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetQuiz(ctx, &api.GetQuizRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "session_id is required")

	n := -1
	_, err = c.CreateQuiz(ctx, &api.CreateQuizRequest{NumQuestions: &n})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	n = 4
	created, err := c.CreateQuiz(ctx, &api.CreateQuizRequest{NumQuestions: &n})
	require.NoError(t, err)
	require.Len(t, f.key(t, created.SessionID), 4)

	ids := []int{0, 1, 7, 3}
	req := &api.SubmitRequest{SessionID: created.SessionID}
	for i := range ids {
		req.Answers = append(req.Answers, api.Answer{QuestionID: &ids[i], SelectedLabel: "A"})
	}

	_, err = c.SubmitQuiz(ctx, req)
	st := status.Convert(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "invalid question ID: 7", st.Message())
	require.Len(t, st.Details(), 1)
	d, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok)
	assert.Equal(t, float64(7), d.AsMap()["question_id"])
}

func TestGRPC_StoreEmpty(t *testing.T) {
	_, c := makeGRPCClient(t, 0)

	_, err := c.CreateQuiz(context.Background(), &api.CreateQuizRequest{})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func makeGRPCClient(t *testing.T, bank int) (*fixture, *api.Client) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(telemetry.GRPCServerInterceptor())

	f := makeFixture(t, bank, func(c *api.Config) {
		c.GRPC = srv
	})

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return f, api.NewClient(conn)
}
