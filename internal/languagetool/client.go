package languagetool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Samuelzila/grammar-police/common/logger"
	"github.com/Samuelzila/grammar-police/internal/model"
)

const (
	DefaultBaseURL  = "http://localhost:8081"
	DefaultLanguage = "fr-CA"

	// maxBodyBytes bounds how much of a response we are willing to buffer.
	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
}

// Client queries a LanguageTool server's /v2/check endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		language:   language,
	}
}

func (c *Client) Language() string {
	return c.language
}

// Check sends text for analysis and returns the candidate issues in engine order.
func (c *Client) Check(ctx context.Context, text string) ([]model.Issue, error) {
	form := url.Values{}
	form.Set("language", c.language)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building languagetool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EngineError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &EngineError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &EngineError{StatusCode: resp.StatusCode, Body: logger.Truncate(string(body), 200)}
	}

	issues, err := ParseCheckResponse(body)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "languagetool check completed",
		"language", c.language,
		"match_count", len(issues),
		"duration_ms", time.Since(start).Milliseconds())

	return issues, nil
}
