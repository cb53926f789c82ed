package match

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/roomate/internal/auth"
	"github.com/oggyb/roomate/internal/db"
	svcErr "github.com/oggyb/roomate/internal/errors"
	"github.com/oggyb/roomate/internal/repository"
	"github.com/oggyb/roomate/internal/utils/pagination"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "roomate.match.v1.MatchService"

// ContentSubtype selects the JSON codec on the wire ("application/grpc+json").
const ContentSubtype = "json"

type RecordSwipeRequest struct {
	SwipedID string `json:"swiped_id"`
	Action   string `json:"action"`
}

type UndoSwipeRequest struct {
	SwipedID string `json:"swiped_id"`
}

type ListCandidatesRequest struct {
	Location       string `json:"location,omitempty"`
	Gender         string `json:"gender,omitempty"`
	MaxPrice       *int   `json:"max_price,omitempty"`
	Major          string `json:"major,omitempty"`
	SameGenderPref string `json:"same_gender_pref,omitempty"`
	JobType        string `json:"job_type,omitempty"`
	MoveInDate     string `json:"move_in_date,omitempty"`
	Page           int    `json:"page,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// Filter converts the request into a repository filter.
func (r *ListCandidatesRequest) Filter() repository.CandidateFilter {
	return repository.CandidateFilter{
		Location:       r.Location,
		Gender:         r.Gender,
		MaxPrice:       r.MaxPrice,
		Major:          r.Major,
		SameGenderPref: r.SameGenderPref,
		JobType:        r.JobType,
		MoveInMonth:    r.MoveInDate,
	}
}

type ListMatchesRequest struct{}

type ListMatchesResponse struct {
	Matches []MatchSummary `json:"matches"`
}

type UnmatchRequest struct {
	MatchID string `json:"match_id"`
}

type SendMessageRequest struct {
	MatchID string `json:"match_id"`
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Message *db.Message `json:"message"`
}

type ListMessagesRequest struct {
	MatchID string `json:"match_id"`
}

// Ack acknowledges a call that has nothing else to return.
type Ack struct {
	Success bool `json:"success"`
}

// MatchServiceServer is the server API of roomate.match.v1.MatchService.
// The caller is always taken from the authenticated context.
type MatchServiceServer interface {
	RecordSwipe(context.Context, *RecordSwipeRequest) (*SwipeResult, error)
	UndoSwipe(context.Context, *UndoSwipeRequest) (*Ack, error)
	ListCandidates(context.Context, *ListCandidatesRequest) (*CandidatePage, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	Unmatch(context.Context, *UnmatchRequest) (*Ack, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*Conversation, error)
}

// MatchServiceDesc describes the service for grpc.Server.RegisterService.
var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RecordSwipe", MatchServiceServer.RecordSwipe),
		unary("UndoSwipe", MatchServiceServer.UndoSwipe),
		unary("ListCandidates", MatchServiceServer.ListCandidates),
		unary("ListMatches", MatchServiceServer.ListMatches),
		unary("Unmatch", MatchServiceServer.Unmatch),
		unary("SendMessage", MatchServiceServer.SendMessage),
		unary("ListMessages", MatchServiceServer.ListMessages),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roomate/match/v1/match_service",
}

func unary[Req, Resp any](
	method string,
	call func(MatchServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(MatchServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GRPCHandler adapts Service to MatchServiceServer and maps errors to
// gRPC status codes.
type GRPCHandler struct {
	svc *Service
}

// NewGRPCHandler creates the gRPC adapter for svc.
func NewGRPCHandler(svc *Service) *GRPCHandler {
	return &GRPCHandler{svc: svc}
}

func caller(ctx context.Context) (string, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "", svcErr.Map(svcErr.Unauthorized("authentication required"))
	}
	return id.UserID, nil
}

func (h *GRPCHandler) RecordSwipe(ctx context.Context, req *RecordSwipeRequest) (*SwipeResult, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.RecordSwipe(ctx, userID, req.SwipedID, req.Action)
	return res, svcErr.Map(err)
}

func (h *GRPCHandler) UndoSwipe(ctx context.Context, req *UndoSwipeRequest) (*Ack, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.UndoSwipe(ctx, userID, req.SwipedID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &Ack{Success: true}, nil
}

func (h *GRPCHandler) ListCandidates(ctx context.Context, req *ListCandidatesRequest) (*CandidatePage, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.svc.ListCandidates(ctx, userID, req.Filter(), pagination.New(req.Page, req.Limit))
	return page, svcErr.Map(err)
}

func (h *GRPCHandler) ListMatches(ctx context.Context, _ *ListMatchesRequest) (*ListMatchesResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := h.svc.ListMatches(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMatchesResponse{Matches: matches}, nil
}

func (h *GRPCHandler) Unmatch(ctx context.Context, req *UnmatchRequest) (*Ack, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Unmatch(ctx, req.MatchID, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &Ack{Success: true}, nil
}

func (h *GRPCHandler) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := h.svc.SendMessage(ctx, req.MatchID, userID, req.Content)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SendMessageResponse{Message: msg}, nil
}

func (h *GRPCHandler) ListMessages(ctx context.Context, req *ListMessagesRequest) (*Conversation, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := h.svc.ListMessages(ctx, req.MatchID, userID)
	return conv, svcErr.Map(err)
}

// Client calls MatchService over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc. The JSON codec must be registered in the process.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordSwipe(ctx context.Context, in *RecordSwipeRequest, opts ...grpc.CallOption) (*SwipeResult, error) {
	return invoke[SwipeResult](ctx, c, "RecordSwipe", in, opts)
}

func (c *Client) UndoSwipe(ctx context.Context, in *UndoSwipeRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c, "UndoSwipe", in, opts)
}

func (c *Client) ListCandidates(ctx context.Context, in *ListCandidatesRequest, opts ...grpc.CallOption) (*CandidatePage, error) {
	return invoke[CandidatePage](ctx, c, "ListCandidates", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", in, opts)
}

func (c *Client) Unmatch(ctx context.Context, in *UnmatchRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c, "Unmatch", in, opts)
}

func (c *Client) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c, "SendMessage", in, opts)
}

func (c *Client) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*Conversation, error) {
	return invoke[Conversation](ctx, c, "ListMessages", in, opts)
}
