package api

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/victornm/mcquiz/internal/errors"
)

const serviceName = "mcquiz.v1.QuizService"

// QuizServiceServer is the gRPC service. Messages are the JSON types of this package,
// carried with the "json" codec (content-type application/grpc+json).
type QuizServiceServer interface {
	CreateQuiz(context.Context, *CreateQuizRequest) (*CreateQuizResponse, error)
	GetQuiz(context.Context, *GetQuizRequest) (*GetQuizResponse, error)
	SubmitQuiz(context.Context, *SubmitRequest) (*SubmitResponse, error)
	CountQuestions(context.Context, *CountQuestionsRequest) (*CountQuestionsResponse, error)
}

var quizServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QuizServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateQuiz", QuizServiceServer.CreateQuiz),
		unaryMethod("GetQuiz", QuizServiceServer.GetQuiz),
		unaryMethod("SubmitQuiz", QuizServiceServer.SubmitQuiz),
		unaryMethod("CountQuestions", QuizServiceServer.CountQuestions),
	},
	Metadata: "mcquiz/v1/quiz.json",
}

func unaryMethod[Req, Resp any](name string, call func(QuizServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			h := func(ctx context.Context, req any) (any, error) {
				resp, err := call(srv.(QuizServiceServer), ctx, req.(*Req))
				if err != nil {
					// Internal errors only expose their code, see errors.Error.GRPCStatus.
					return nil, errors.Convert(err)
				}
				return resp, nil
			}

			if interceptor == nil {
				return h(ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			return interceptor(ctx, in, info, h)
		},
	}
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Client calls QuizService over a gRPC connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateQuiz(ctx context.Context, req *CreateQuizRequest, opts ...grpc.CallOption) (*CreateQuizResponse, error) {
	resp := new(CreateQuizResponse)
	if err := c.invoke(ctx, "CreateQuiz", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetQuiz(ctx context.Context, req *GetQuizRequest, opts ...grpc.CallOption) (*GetQuizResponse, error) {
	resp := new(GetQuizResponse)
	if err := c.invoke(ctx, "GetQuiz", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, req *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	resp := new(SubmitResponse)
	if err := c.invoke(ctx, "SubmitQuiz", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CountQuestions(ctx context.Context, req *CountQuestionsRequest, opts ...grpc.CallOption) (*CountQuestionsResponse, error) {
	resp := new(CountQuestionsResponse)
	if err := c.invoke(ctx, "CountQuestions", req, resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodec{}.Name())}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, resp, opts...)
}
