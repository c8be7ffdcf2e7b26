// Package emailvision wraps the EmailVision (Campaign Commander) REST API.
//
// A Client owns one API session: New opens it, Close ends it and Call
// issues authenticated GET or POST requests against any endpoint while
// the session is active. Release and WithSession give scoped use of a
// session so that it is closed on every exit path.
package emailvision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/emailvision/internal/pkg/httpclient"
	"github.com/ignite/emailvision/internal/pkg/logger"
)

// Method is the HTTP verb accepted by Call.
type Method string

const (
	MethodGet  Method = "get"
	MethodPost Method = "post"
)

const (
	openPath  = "connect/open/"
	closePath = "connect/close/"

	closedConfirmation = "connection closed"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config identifies the API server and the account used to open a session.
type Config struct {
	// API is the namespace of the REST API, e.g. "apiccmd".
	API      string
	Server   string
	Login    string
	Password string
	APIKey   string
	// Insecure selects plain http instead of https.
	Insecure bool
	Timeout  time.Duration
}

// Option customises a Client at construction.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(doer httpclient.HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithParamsEncoder replaces the XML body encoder used for POST calls.
func WithParamsEncoder(enc ParamsEncoder) Option {
	return func(c *Client) { c.encodeParams = enc }
}

// Client is an EmailVision API session. It is safe for concurrent use;
// Open and Close are serialised.
type Client struct {
	baseURL      string
	httpClient   httpclient.HTTPDoer
	encodeParams ParamsEncoder

	sessionMu sync.Mutex

	mu    sync.RWMutex
	token string
}

// BaseURL builds "{scheme}://{server}/{api}/services/rest/".
func BaseURL(api, server string, insecure bool) string {
	scheme := "https"
	if insecure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/services/rest/", scheme, server, api)
}

// New creates the client and opens a session with the configured account.
// If opening fails the error is returned and no client is produced.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.API == "" || cfg.Server == "" {
		return nil, NewError(KindConfig, "API and API server URL must be specified", "")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:      BaseURL(cfg.API, cfg.Server, cfg.Insecure),
		httpClient:   httpclient.New(timeout),
		encodeParams: EmptyRootEncoder,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Open(ctx, cfg.Login, cfg.Password, cfg.APIKey); err != nil {
		return nil, err
	}
	return c, nil
}

// String returns the base URL of the API.
func (c *Client) String() string { return c.baseURL }

// BaseURL returns the base URL every call path is appended to.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current session token, or "" when no session is open.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsOpen reports whether a session token is held.
func (c *Client) IsOpen() bool { return c.Token() != "" }

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Call invokes the REST method at path using the given HTTP method and
// returns the response body text. The active session token is added
// automatically: as the "token" query parameter for GET, and appended to
// the URL for POST.
func (c *Client) Call(ctx context.Context, path string, method Method, params map[string]string) (string, error) {
	var (
		resp *http.Response
		err  error
	)
	switch method {
	case MethodGet:
		resp, err = c.get(ctx, path, params)
	case MethodPost:
		resp, err = c.post(ctx, path, params)
	default:
		return "", NewError(KindInternal, fmt.Sprintf("invalid HTTP method '%s'", method), "")
	}
	if err != nil {
		logger.Warn("emailvision call failed", "path", path, "method", method, "error", err)
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapError(KindTransport, err, "reading response from %s: %v", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &Error{
			Kind: KindHTTPStatus,
			Msg: fmt.Sprintf("%d %s for url: %s",
				resp.StatusCode, http.StatusText(resp.StatusCode), c.baseURL+path),
			Code: strconv.Itoa(resp.StatusCode),
		}
		logger.Warn("emailvision call failed", "path", path, "method", method, "status", resp.StatusCode)
		return "", statusErr
	}

	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) (*http.Response, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	if token := c.Token(); token != "" {
		query.Set("token", token)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, wrapError(KindTransport, err, "connecting by HTTP GET: %v", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, params map[string]string) (*http.Response, error) {
	reqURL := c.baseURL + path + url.PathEscape(c.Token())

	body, err := c.encodeParams(params)
	if err != nil {
		return nil, wrapError(KindInternal, err, "encoding POST params: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(KindTransport, err, "connecting by HTTP POST: %v", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query credentials included.
		details := err
		var ue *url.Error
		if errors.As(err, &ue) {
			details = ue.Err
		}
		return nil, wrapError(KindTransport, err, "connecting by HTTP %s: %v", req.Method, details)
	}
	return resp, nil
}

// Open starts a session with the API server and stores its token.
func (c *Client) Open(ctx context.Context, login, password, apiKey string) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.IsOpen() {
		return NewError(KindInternal, "connection already open", "")
	}

	text, err := c.Call(ctx, openPath, MethodGet, map[string]string{
		"login": login,
		"pwd":   password,
		"key":   apiKey,
	})
	if err != nil {
		return err
	}

	token, err := firstResult(text)
	if err != nil {
		return err
	}
	if token == "" {
		return NewError(KindProtocol, "unexpected response from server", "")
	}

	c.setToken(token)
	logger.Info("emailvision session opened", "server", c.baseURL, "login", login)
	return nil
}

// Close ends the session. When the server does not confirm the close the
// token is kept and the client should no longer be used.
func (c *Client) Close(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	text, err := c.Call(ctx, closePath, MethodGet, nil)
	if err != nil {
		return err
	}

	result, err := firstResult(text)
	if err != nil {
		return err
	}
	if result != closedConfirmation {
		return NewError(KindProtocol, "failure to close connection: "+result, "")
	}

	c.setToken("")
	logger.Info("emailvision session closed", "server", c.baseURL)
	return nil
}
