// Package remote talks to the account backend: login endpoints and the
// upload of migrated guest data.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/models"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned when no base URL is set.
var ErrNotConfigured = errors.New("remote api base url not configured")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Code, e.Body)
}

// Client is the account backend client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL. A nil httpClient gets DefaultTimeout.
func New(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// NewHTTPClient returns an http.Client with DefaultTimeout. When caFile is
// set, server certificates are verified against that bundle only.
func NewHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: DefaultTimeout}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
	}
	return &http.Client{Transport: transport, Timeout: DefaultTimeout}, nil
}

// SetToken sets the bearer token sent with every request. An empty token
// clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends in as JSON (when non-nil) and decodes the answer into out (when
// non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
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
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("remote call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SendEmailCode asks the backend to mail a login code to email.
func (c *Client) SendEmailCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/email/send", map[string]string{"email": email}, nil)
}

// VerifyEmailCode trades an emailed code for a session.
func (c *Client) VerifyEmailCode(ctx context.Context, email, code string) (models.AuthResult, error) {
	var res models.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/email/verify", map[string]string{"email": email, "code": code}, &res)
	return res, err
}

// OAuthURL returns the provider page the user has to visit.
func (c *Client) OAuthURL(ctx context.Context, provider, redirectURL string) (string, error) {
	path := "/auth/oauth/" + url.PathEscape(provider) + "/url"
	if redirectURL != "" {
		path += "?" + url.Values{"redirect_uri": {redirectURL}}.Encode()
	}
	var res struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return "", err
	}
	if res.URL == "" {
		return "", errors.New("empty oauth url")
	}
	return res.URL, nil
}

// ExchangeToken trades a provider token or authorization code for a session.
func (c *Client) ExchangeToken(ctx context.Context, provider, token string) (models.AuthResult, error) {
	var res models.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/token/exchange",
		map[string]string{"provider": provider, "token": token}, &res)
	return res, err
}

// PushMigration uploads the staged guest data to the account.
func (c *Client) PushMigration(ctx context.Context, m models.PendingMigration) (models.MigrationAck, error) {
	payload := struct {
		MigrationID string          `json:"migrationId"`
		UserID      string          `json:"userId"`
		Snapshot    models.Snapshot `json:"snapshot"`
	}{m.ID, m.TargetUserID, m.Snapshot}

	var ack models.MigrationAck
	if err := c.do(ctx, http.MethodPost, "/sync/migrate", payload, &ack); err != nil {
		return models.MigrationAck{}, err
	}
	return ack, nil
}
