// Package ai is the note-generation collaborator boundary: a thin
// client for an Anthropic-style messages API that turns prompts into
// sticky-note texts and theme assignments.
//
// Failures here are the one class of error the application surfaces to
// the user (a misconfigured key is actionable); they never touch board
// state.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no API key has been provided. The
// caller should prompt the user to configure credentials rather than
// retry.
var ErrNotConfigured = errors.New("ai: API key not configured")

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-20241022"
	apiVersion     = "2023-06-01"

	singleNoteMaxTokens = 1024
	multiNoteMaxTokens  = 2048
)

// Client calls the note-generation service.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client. An empty apiKey is allowed; every request
// will then fail with ErrNotConfigured until SetAPIKey is called.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAPIKey installs or replaces the API key.
func (c *Client) SetAPIKey(key string) { c.apiKey = key }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// GenerateNote produces a single sticky-note text for the prompt,
// optionally grounded in boardContext.
func (c *Client) GenerateNote(ctx context.Context, prompt, boardContext string) (string, error) {
	system := "You are a helpful AI assistant collaborating with humans on a whiteboard.\n" +
		"Your role is to help brainstorm, organize ideas, and create sticky notes based on user requests.\n" +
		"Keep your responses concise and suitable for sticky notes (1-3 sentences or bullet points)."
	if boardContext != "" {
		system += "\n\nContext from the board: " + boardContext
	}

	return c.complete(ctx, system, prompt, singleNoteMaxTokens)
}

var numberedLine = regexp.MustCompile(`^\d+\.\s*`)

// GenerateNotes produces count distinct sticky-note texts. The service
// replies with a numbered list, one note per line; lines that do not
// match the protocol are ignored.
func (c *Client) GenerateNotes(ctx context.Context, prompt string, count int, theme string) ([]string, error) {
	system := fmt.Sprintf("You are a helpful AI assistant collaborating with humans on a whiteboard.\n"+
		"Generate %d distinct sticky note ideas based on the user's request.\n", count)
	if theme != "" {
		system += "Theme: " + theme + "\n"
	}
	system += "Format your response as a numbered list, with each note on a new line.\n" +
		"Keep each note concise (1-3 sentences or a few bullet points)."

	text, err := c.complete(ctx, system, prompt, multiNoteMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseNumberedList(text), nil
}

// ParseNumberedList extracts the note texts from a numbered-list reply.
func ParseNumberedList(text string) []string {
	var notes []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		note := strings.TrimSpace(numberedLine.ReplaceAllString(line, ""))
		if note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}

// OrganizeByThemes asks the service to group note texts by theme,
// returning theme name to zero-based note indices.
func (c *Client) OrganizeByThemes(ctx context.Context, notes []string) (map[string][]int, error) {
	system := "You are helping organize sticky notes on a whiteboard by themes.\n" +
		"Analyze the following notes and group them by common themes.\n" +
		"Return ONLY a JSON object where keys are theme names and values are arrays of note indices (0-based).\n" +
		`Example: {"Ideas": [0, 2], "Tasks": [1, 3], "Questions": [4]}`

	var sb strings.Builder
	sb.WriteString("Notes to organize:\n")
	for i, note := range notes {
		fmt.Fprintf(&sb, "%d. %s\n", i, note)
	}

	text, err := c.complete(ctx, system, sb.String(), multiNoteMaxTokens)
	if err != nil {
		return nil, err
	}

	assignment, err := ExtractThemeMap(text)
	if err != nil {
		return nil, fmt.Errorf("ai: parsing theme organization: %w", err)
	}
	return assignment, nil
}

// ExtractThemeMap pulls the first JSON object out of a reply that may
// wrap it in prose.
func ExtractThemeMap(text string) (map[string][]int, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}

	var assignment map[string][]int
	if err := json.Unmarshal([]byte(text[start:end+1]), &assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// complete runs one messages-API round trip and returns the first text
// block of the reply.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("ai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai: reading response: %w", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("ai: decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("ai: service error: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("ai: unexpected status %d", resp.StatusCode)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
