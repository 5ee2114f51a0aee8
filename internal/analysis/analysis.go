package analysis

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL  = "http://localhost:8000"
	userAgent      = "spigell/jobmatch (spigelly@gmail.com)"
	defaultTimeout = 30 * time.Second

	parseResumePath = "/parse-resume"
	matchJobsPath   = "/match-jobs"

	defaultMaxLogLength = 200
)

// Client talks to the remote analysis service that parses resumes and matches jobs.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxLogLength limits response previews written to debug logs.
	MaxLogLength int
}

// New returns a client for the service at apiURL. An empty token disables the Authorization header.
func New(apiURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:       logger,
		UserAgent:    userAgent,
		MaxLogLength: defaultMaxLogLength,
	}
}
