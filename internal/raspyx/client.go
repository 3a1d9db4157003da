// Package raspyx клиент API расписаний Raspyx
package raspyx

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
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	loginEndpoint = "/api/v1/users/login"
	tokenTTL      = 23 * time.Hour
)

var (
	ErrNotFound     = errors.New("raspyx: not found")
	ErrUnauthorized = errors.New("raspyx: unauthorized")
	ErrBadResponse  = errors.New("raspyx: invalid response format")
)

// StatusError неуспешный HTTP статус ответа
type StatusError struct {
	Code     int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("raspyx: %s returned HTTP %d", e.Endpoint, e.Code)
}

// Observer получает результат каждого запроса (для метрик)
type Observer func(endpoint string, status int, elapsed time.Duration)

// Client клиент Raspyx с JWT авторизацией и повторами
type Client struct {
	baseURL  string
	username string
	password string

	http     *http.Client
	logger   *zap.Logger
	observe  Observer
	backoff  time.Duration
	retries  uint64
	nowFunc  func() time.Time
	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithObserver(o Observer) Option {
	return func(cl *Client) { cl.observe = o }
}

// WithBackoff задаёт базовую задержку и число повторов
func WithBackoff(base time.Duration, retries uint64) Option {
	return func(cl *Client) {
		cl.backoff = base
		cl.retries = retries
	}
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.nowFunc = now }
}

// NewClient создаёт клиента; пустые учётные данные отключают авторизацию
func NewClient(baseURL, username, password string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		backoff:  500 * time.Millisecond,
		retries:  3,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// Login получает JWT токен
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("marshal login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: %w", &StatusError{Code: resp.StatusCode, Endpoint: loginEndpoint})
	}

	raw, err := decodeEnvelope(resp.Body)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var tok struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return fmt.Errorf("login: %w", ErrBadResponse)
	}
	token := tok.Token
	if token == "" {
		token = tok.AccessToken
	}
	if token == "" {
		return fmt.Errorf("login: %w", ErrBadResponse)
	}

	c.mu.Lock()
	c.token = token
	c.tokenExp = c.nowFunc().Add(tokenTTL)
	c.mu.Unlock()

	c.logger.Info("Successfully authenticated with Raspyx API")
	return nil
}

func (c *Client) authEnabled() bool {
	return c.username != "" && c.password != ""
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	if !c.authEnabled() {
		return "", nil
	}

	c.mu.Lock()
	token, exp := c.token, c.tokenExp
	c.mu.Unlock()

	if token != "" && c.nowFunc().Before(exp) {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Get выполняет GET запрос и возвращает поле response конверта
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	var result json.RawMessage
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		raw, err := c.getOnce(ctx, endpoint, params, true)
		if err != nil {
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) getOnce(ctx context.Context, endpoint string, params url.Values, allowReauth bool) (json.RawMessage, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.record(endpoint, 0, elapsed)
		c.logger.Error("API request failed",
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.record(endpoint, resp.StatusCode, elapsed)
	c.logger.Debug("API GET",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if allowReauth && c.authEnabled() {
			c.logger.Warn("API 401, re-authenticating", zap.String("endpoint", endpoint))
			c.invalidateToken()
			return c.getOnce(ctx, endpoint, params, false)
		}
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode, Endpoint: endpoint}
	}

	raw, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	return raw, nil
}

func (c *Client) record(endpoint string, status int, elapsed time.Duration) {
	if c.observe != nil {
		c.observe(EndpointKind(endpoint), status, elapsed)
	}
}

var endpointKinds = []struct {
	prefix string
	kind   string
}{
	{"/api/v1/schedules/group/", "group_schedule"},
	{"/api/v1/schedules/teacher/", "teacher_schedule"},
	{"/api/v1/schedules/room/", "room_schedule"},
	{"/api/v1/groups", "groups"},
	{"/api/v1/teachers", "teachers"},
	{"/api/v1/users/login", "login"},
}

// EndpointKind тип запроса без параметров пути, для меток метрик
func EndpointKind(endpoint string) string {
	for _, k := range endpointKinds {
		if strings.HasPrefix(endpoint, k.prefix) {
			return k.kind
		}
	}
	return "other"
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrBadResponse) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// транспортные ошибки
	return true
}

func decodeEnvelope(r io.Reader) (json.RawMessage, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, ErrBadResponse
	}
	if env.Status != "OK" || len(env.Response) == 0 {
		return nil, ErrBadResponse
	}
	return env.Response, nil
}
