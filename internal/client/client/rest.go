package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/netx"
)

type RESTClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient returns a client for the API rooted at baseURL.
func NewRESTClient(baseURL string, timeout time.Duration) (*RESTClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server url %q: must be an absolute http(s) URL", baseURL)
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *RESTClient) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *RESTClient) setSessionToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

// do sends in as JSON and decodes a 2xx answer into out. Protected calls
// fail fast with ErrUnauthorized when no session exists.
func (c *RESTClient) do(ctx context.Context, method, path string, protected bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if protected {
		token := c.sessionToken()
		if token == "" {
			return ErrUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %s", ErrUnavailable, msg)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *RESTClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
}

func (c *RESTClient) Register(ctx context.Context, email string, password []byte, displayName string) (string, error) {
	var out struct {
		AccountID string `json:"accountId"`
	}
	in := map[string]string{"email": email, "password": string(password), "displayName": displayName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, in, &out); err != nil {
		return "", err
	}
	return out.AccountID, nil
}

// Login authenticates and keeps the session token for later calls.
func (c *RESTClient) Login(ctx context.Context, email string, password []byte) (*Account, error) {
	var out struct {
		Token     string  `json:"token"`
		ExpiresIn int64   `json:"expiresIn"`
		Account   Account `json:"account"`
	}
	in := map[string]string{"email": email, "password": string(password)}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, in, &out); err != nil {
		return nil, err
	}
	c.setSessionToken(out.Token)
	return &out.Account, nil
}

func (c *RESTClient) Logout() {
	c.setSessionToken("")
}

func (c *RESTClient) RequestReset(ctx context.Context, email string) (string, error) {
	var out messageBody
	if err := c.do(ctx, http.MethodPost, "/auth/reset-request", false, map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *RESTClient) CompleteReset(ctx context.Context, token string, newPassword []byte) (string, error) {
	var out messageBody
	in := map[string]string{"token": token, "newPassword": string(newPassword)}
	if err := c.do(ctx, http.MethodPost, "/auth/reset-complete", false, in, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *RESTClient) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/auth/me", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) Appointments(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	if err := c.do(ctx, http.MethodGet, "/appointments", true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RESTClient) AddAppointment(ctx context.Context, title string, at time.Time, description string) (*Appointment, error) {
	var out Appointment
	in := map[string]any{"title": title, "scheduledAt": at, "description": description}
	if err := c.do(ctx, http.MethodPost, "/appointments", true, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) SetAppointmentStatus(ctx context.Context, id, status string) (*Appointment, error) {
	var out Appointment
	path := "/appointments/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, true, map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/appointments/"+url.PathEscape(id), true, nil, nil)
}

func (c *RESTClient) Posts(ctx context.Context, cursor string, limit int) (*PostPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/forum/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out PostPage
	if err := c.do(ctx, http.MethodGet, path, false, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) AddPost(ctx context.Context, body, attachmentKey string) (*Post, error) {
	var out Post
	in := map[string]string{"body": body, "attachmentKey": attachmentKey}
	if err := c.do(ctx, http.MethodPost, "/forum/posts", true, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) AttachmentUploadURL(ctx context.Context) (string, string, error) {
	var out struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/forum/attachments", true, nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.URL, nil
}

// Upload PUTs data to a presigned storage URL.
func (c *RESTClient) Upload(ctx context.Context, target string, data []byte) error {
	return netx.PutPresigned(ctx, c.http, target, data)
}

func (c *RESTClient) BMI(ctx context.Context, heightCm, weightKg float64) (*BMI, error) {
	var out BMI
	in := map[string]float64{"heightCm": heightCm, "weightKg": weightKg}
	if err := c.do(ctx, http.MethodPost, "/bmi", false, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
