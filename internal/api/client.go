package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Default dataset locations.
const (
	DefaultBaseURL    = "https://data.techforpalestine.org/api/v2"
	DefaultKilledPath = "/killed-in-gaza.min.json"
	DefaultDailyPath  = "/casualties_daily.min.json"
)

// Client provides access to the casualty datasets.
type Client struct {
	baseURL    string
	killedPath string
	dailyPath  string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new dataset client. Requests are not retried unless
// WithRetries is given.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		killedPath: DefaultKilledPath,
		dailyPath:  DefaultDailyPath,
		userAgent:  "casualty-monitor",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   0,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDatasetPaths overrides the dataset paths. Empty values keep the defaults.
func WithDatasetPaths(killed, daily string) ClientOption {
	return func(c *Client) {
		if killed != "" {
			c.killedPath = killed
		}
		if daily != "" {
			c.dailyPath = daily
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}
