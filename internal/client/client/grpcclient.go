package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// MediaServiceName is the fully qualified gRPC service name.
const MediaServiceName = "media.v1.MediaService"

const (
	MethodRequestBatchUpload = "/" + MediaServiceName + "/RequestBatchUpload"
	MethodConfirmBatchUpload = "/" + MediaServiceName + "/ConfirmBatchUpload"
	MethodCreatePost         = "/" + MediaServiceName + "/CreatePost"
	MethodPing               = "/" + MediaServiceName + "/Ping"
)

// TokenRefresher returns a fresh access token. It is called at most once
// per RPC, after the server rejected the current token as expired.
type TokenRefresher func(ctx context.Context) (string, error)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	refresh     TokenRefresher
	dialOpts    []grpc.DialOption

	mu          sync.RWMutex
	accessToken string
}

type GRPCOption func(*GRPCClient)

// WithTokenRefresher enables one transparent retry on expired tokens.
func WithTokenRefresher(fn TokenRefresher) GRPCOption {
	return func(c *GRPCClient) { c.refresh = fn }
}

// WithDialOptions appends extra dial options (tests use a bufconn dialer).
func WithDialOptions(opts ...grpc.DialOption) GRPCOption {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewGRPCClient(endpointURL string, opts ...GRPCOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	for _, o := range opts {
		o(c)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	err := invoker(withAccessToken(ctx, c.token()), method, req, reply, cc, opts...)
	if err == nil || c.refresh == nil {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	token, rerr := c.refresh(ctx)
	if rerr != nil {
		return err
	}
	c.SetAccessToken(token)

	return invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
}

func (c *GRPCClient) call(ctx context.Context, method string, in any, out any) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return c.mapError(err)
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

func (c *GRPCClient) RequestBatchPresignedURLs(ctx context.Context, files []models.FileSpec) ([]models.UploadTarget, error) {
	var out presignResponse
	if err := c.call(ctx, MethodRequestBatchUpload, presignRequest{Files: files}, &out); err != nil {
		return nil, err
	}
	if len(out.Targets) != len(files) {
		return nil, targetMismatch(len(files), len(out.Targets))
	}
	return out.Targets, nil
}

func (c *GRPCClient) ConfirmBatchUpload(ctx context.Context, items []models.ConfirmItem) error {
	return c.call(ctx, MethodConfirmBatchUpload, confirmRequest{Items: items}, nil)
}

func (c *GRPCClient) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.CreatedPost, error) {
	var out models.CreatedPost
	if err := c.call(ctx, MethodCreatePost, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, MethodPing, struct{}{}, &out); err != nil {
		return err
	}
	if out.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
