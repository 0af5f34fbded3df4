package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const (
	pathBatchPresign = "/api/media/presigned-urls/batch"
	pathBatchConfirm = "/api/media/confirm/batch"
	pathPosts        = "/api/posts"
	pathHealth       = "/api/health"
)

// HTTPClient talks to the REST media API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu          sync.RWMutex
	accessToken string
}

// NewHTTPClient returns a client for baseURL ("https://api.example.com").
// A nil httpClient gets a default one with a 30s timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

// SetAccessToken sets the bearer token sent with every request.
func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

type presignRequest struct {
	Files []models.FileSpec `json:"files"`
}

type presignResponse struct {
	Targets []models.UploadTarget `json:"targets"`
}

type confirmRequest struct {
	Items []models.ConfirmItem `json:"items"`
}

func (c *HTTPClient) RequestBatchPresignedURLs(ctx context.Context, files []models.FileSpec) ([]models.UploadTarget, error) {
	var out envelope[presignResponse]
	if err := c.do(ctx, http.MethodPost, pathBatchPresign, presignRequest{Files: files}, &out); err != nil {
		return nil, err
	}
	if len(out.Data.Targets) != len(files) {
		return nil, targetMismatch(len(files), len(out.Data.Targets))
	}
	return out.Data.Targets, nil
}

func (c *HTTPClient) ConfirmBatchUpload(ctx context.Context, items []models.ConfirmItem) error {
	return c.do(ctx, http.MethodPost, pathBatchConfirm, confirmRequest{Items: items}, nil)
}

func (c *HTTPClient) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.CreatedPost, error) {
	var out envelope[models.CreatedPost]
	if err := c.do(ctx, http.MethodPost, pathPosts, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, pathHealth, nil, nil)
}

// checkToken rejects a JWT whose exp claim is in the past. Opaque tokens
// are passed through untouched.
func (c *HTTPClient) checkToken(token string) error {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !exp.After(c.now()) {
		return fmt.Errorf("%w: %w", ErrUnauthorized, common.ErrTokenExpired)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, out any) error {
	c.mu.RLock()
	token := c.accessToken
	c.mu.RUnlock()

	if err := c.checkToken(token); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	msg := readErrorMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("api error: %s: %s", resp.Status, msg)
	}
}

func readErrorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var e envelope[json.RawMessage]
	if err := json.Unmarshal(b, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
