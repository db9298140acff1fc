package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/five82/shutter/internal/apierr"
)

// ErrUnauthorized marks a 401 response. It is wrapped in an unknown failure.
var ErrUnauthorized = errors.New("unauthorized")

// API defines the remote calls the profile flow needs.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	FetchIdentity(ctx context.Context) (Profile, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error)
	UploadAvatar(ctx context.Context, upload AvatarUpload) (Profile, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the studio HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Options tune a Client. Zero values use defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
}

const (
	defaultAPIBind   = "127.0.0.1:7490"
	defaultUserAgent = "shutter/0.1"
	requestTimeout   = 10 * time.Second
	requestBurst     = 4
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts Options) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(limit, requestBurst),
	}, nil
}

// FetchIdentity retrieves the signed-in user's profile.
func (c *Client) FetchIdentity(ctx context.Context) (Profile, error) {
	var payload Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &payload); err != nil {
		return Profile{}, err
	}
	return payload, nil
}

// UpdateProfile replaces the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	var payload Profile
	if err := c.do(ctx, http.MethodPatch, "/api/profile", update, &payload); err != nil {
		return Profile{}, err
	}
	return payload, nil
}

// UploadAvatar stores a new avatar image and returns the updated profile.
func (c *Client) UploadAvatar(ctx context.Context, upload AvatarUpload) (Profile, error) {
	if len(upload.Data) == 0 {
		return Profile{}, apierr.Validation(map[string]string{"data": "empty file"}, nil)
	}
	var payload Profile
	if err := c.do(ctx, http.MethodPost, "/api/profile/avatar", upload, &payload); err != nil {
		return Profile{}, err
	}
	return payload, nil
}

// do performs one request. Every returned error is an *apierr.Error.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return apierr.Unknown(fmt.Errorf("client is nil"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return apierr.Network(fmt.Errorf("rate limit: %w", err))
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apierr.Unknown(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return apierr.Unknown(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.Network(fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(rel.String(), resp)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return apierr.Unknown(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(path string, resp *http.Response) error {
	base := fmt.Errorf("api %s returned status %d", path, resp.StatusCode)

	var envelope errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &envelope)
	}
	if msg := strings.TrimSpace(envelope.Message); msg != "" {
		base = fmt.Errorf("%w: %s", base, msg)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity || (resp.StatusCode == http.StatusBadRequest && len(envelope.FieldErrors) > 0):
		return apierr.Validation(envelope.FieldErrors, base)
	case resp.StatusCode == http.StatusUnauthorized:
		return apierr.Unknown(fmt.Errorf("%w: %w", ErrUnauthorized, base))
	default:
		return apierr.Unknown(base)
	}
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
