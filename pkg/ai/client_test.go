package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService fakes the messages API with a canned reply, capturing the
// last request for assertions.
func stubService(t *testing.T, replyText string) (*httptest.Server, *messagesRequest) {
	t.Helper()
	var last messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))

		resp := messagesResponse{Content: []contentBlock{{Type: "text", Text: replyText}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestGenerateNote(t *testing.T) {
	srv, last := stubService(t, "Try user interviews before building anything.")
	c := NewClient("test-key", WithBaseURL(srv.URL))

	text, err := c.GenerateNote(context.Background(), "how to validate the idea?", "startup board")
	require.NoError(t, err)
	assert.Equal(t, "Try user interviews before building anything.", text)
	assert.Equal(t, "how to validate the idea?", last.Messages[0].Content)
	assert.Contains(t, last.System, "startup board")
	assert.Equal(t, singleNoteMaxTokens, last.MaxTokens)
}

func TestGenerateNotesParsesNumberedList(t *testing.T) {
	reply := "Here are some ideas:\n" +
		"1. First idea\n" +
		"2.Second idea without space\n" +
		"not a numbered line\n" +
		"3. Third idea\n"
	srv, last := stubService(t, reply)
	c := NewClient("test-key", WithBaseURL(srv.URL))

	notes, err := c.GenerateNotes(context.Background(), "brainstorm", 3, "Ideas")
	require.NoError(t, err)
	assert.Equal(t, []string{"First idea", "Second idea without space", "Third idea"}, notes)
	assert.Contains(t, last.System, "Theme: Ideas")
	assert.Equal(t, multiNoteMaxTokens, last.MaxTokens)
}

func TestOrganizeByThemes(t *testing.T) {
	reply := "Sure! Here is the grouping:\n" +
		`{"Ideas": [0, 2], "Tasks": [1]}` +
		"\nLet me know if you need anything else."
	srv, _ := stubService(t, reply)
	c := NewClient("test-key", WithBaseURL(srv.URL))

	got, err := c.OrganizeByThemes(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Ideas": {0, 2}, "Tasks": {1}}, got)
}

func TestUnconfiguredClientFailsFast(t *testing.T) {
	c := NewClient("")
	assert.False(t, c.Configured())

	_, err := c.GenerateNote(context.Background(), "p", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c.SetAPIKey("k")
	assert.True(t, c.Configured())
}

func TestServiceErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		resp := messagesResponse{Error: &apiError{Type: "authentication_error", Message: "invalid x-api-key"}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	c := NewClient("bad-key", WithBaseURL(srv.URL))

	_, err := c.GenerateNote(context.Background(), "p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestParseNumberedList(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "1. a\n2. b", []string{"a", "b"}},
		{"surrounding prose", "intro\n1. a\noutro", []string{"a"}},
		{"multi digit", "10. ten\n11. eleven", []string{"ten", "eleven"}},
		{"empty entries skipped", "1. \n2. b", []string{"b"}},
		{"no list", "just a paragraph", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseNumberedList(tc.in))
		})
	}
}

func TestExtractThemeMap(t *testing.T) {
	got, err := ExtractThemeMap(`prose {"A": [0], "B": [1, 2]} trailing`)
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"A": {0}, "B": {1, 2}}, got)

	_, err = ExtractThemeMap("no json here")
	assert.Error(t, err)

	_, err = ExtractThemeMap(`{"A": "not an index list"}`)
	assert.Error(t, err)
}
