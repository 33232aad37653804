package threads

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/vadim/neo-threads/internal/metrics"
)

const (
	defaultBaseURL     = "https://graph.threads.net"
	defaultAuthBaseURL = "https://www.threads.net"
	defaultAPIVersion  = "v1.0"
	defaultTimeout     = 30 * time.Second
)

// GenericErrorMessage is reported when the upstream gives no usable error text
const GenericErrorMessage = "upstream request failed"

// Client is a Threads Graph API client
type Client struct {
	client      *resty.Client
	baseURL     string
	authBaseURL string
	apiVersion  string
	timeout     time.Duration
	insecureTLS bool
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets the Graph API host
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAuthBaseURL sets the host serving the OAuth consent page
func WithAuthBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.authBaseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIVersion sets the API version
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithTimeout bounds every outbound request
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithInsecureTLS disables certificate verification (development proxies only)
func WithInsecureTLS(insecure bool) ClientOption {
	return func(c *Client) {
		c.insecureTLS = insecure
	}
}

// New creates a new Threads API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		authBaseURL: defaultAuthBaseURL,
		apiVersion:  defaultAPIVersion,
		timeout:     defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.client = resty.New().
		SetTimeout(c.timeout).
		AddResponseMiddleware(observeLatency)

	if c.insecureTLS {
		c.client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	return c
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.client.Close()
}

// GraphURL is the versioned API root every path is resolved against
func (c *Client) GraphURL() string {
	return c.baseURL + "/" + c.apiVersion + "/"
}

// AuthBaseURL is the host serving the OAuth consent page
func (c *Client) AuthBaseURL() string {
	return c.authBaseURL
}

// APIError represents an error from the Threads API
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
	StatusCode   int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("threads API error: %s (code: %d, status: %d)", e.Message, e.Code, e.StatusCode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ErrorMessage extracts the text worth showing for a failed call: the
// upstream error.message when present, the transport error otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return GenericErrorMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return GenericErrorMessage
	}
	return err.Error()
}

type endpointKey struct{}

func withEndpoint(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, endpointKey{}, EndpointTemplate(path))
}

func endpointFrom(ctx context.Context) string {
	if endpoint, ok := ctx.Value(endpointKey{}).(string); ok {
		return endpoint
	}
	return "unknown"
}

// get performs an authenticated GET of path relative to the Graph root
func (c *Client) get(ctx context.Context, path string, params url.Values, accessToken string, out any) error {
	endpoint, err := BuildURL(c.GraphURL(), path, params, accessToken)
	if err != nil {
		return err
	}
	return c.do(c.client.R().WithContext(withEndpoint(ctx, path)), http.MethodGet, endpoint, out)
}

// post performs an authenticated POST with query parameters, the way the
// Graph API expects publishing calls
func (c *Client) post(ctx context.Context, path string, params url.Values, accessToken string, out any) error {
	endpoint, err := BuildURL(c.GraphURL(), path, params, accessToken)
	if err != nil {
		return err
	}
	return c.do(c.client.R().WithContext(withEndpoint(ctx, path)), http.MethodPost, endpoint, out)
}

// postForm performs an unauthenticated form POST
func (c *Client) postForm(ctx context.Context, path string, form map[string]string, out any) error {
	endpoint, err := BuildURL(c.GraphURL(), path, nil, "")
	if err != nil {
		return err
	}
	return c.do(c.client.R().WithContext(withEndpoint(ctx, path)).SetFormData(form), http.MethodPost, endpoint, out)
}

// do executes a request and decodes the response into out
func (c *Client) do(req *resty.Request, method, endpoint string, out any) error {
	if out != nil {
		req.SetResult(out)
	}

	res, err := req.Execute(method, endpoint)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = RedactURL(urlErr.URL)
		}
		return fmt.Errorf("executing request: %w", err)
	}

	if res.IsError() {
		var errResp ErrorResponse
		if err := json.Unmarshal([]byte(res.String()), &errResp); err != nil {
			return &APIError{StatusCode: res.StatusCode()}
		}
		errResp.Error.StatusCode = res.StatusCode()
		return &errResp.Error
	}

	return nil
}

// observeLatency labels by endpoint template; raw paths carry post ids
func observeLatency(_ *resty.Client, response *resty.Response) error {
	metrics.UpstreamLatency.WithLabelValues(
		response.Request.Method,
		endpointFrom(response.Request.Context()),
		strconv.Itoa(response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}
