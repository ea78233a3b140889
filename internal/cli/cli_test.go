package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []SSEEvent
	}{
		{
			name:   "single event",
			stream: "event: tell\ndata: {\"message\":\"hi\"}\n\n",
			want:   []SSEEvent{{Event: "tell", Data: "{\"message\":\"hi\"}"}},
		},
		{
			name:   "multi-line data",
			stream: "event: console\ndata: line1\ndata: line2\n\n",
			want:   []SSEEvent{{Event: "console", Data: "line1\nline2"}},
		},
		{
			name:   "keepalive skipped",
			stream: ": keepalive\n\nevent: broadcast\ndata: x\n\n",
			want:   []SSEEvent{{Event: "broadcast", Data: "x"}},
		},
		{
			name:   "incomplete trailing event dropped",
			stream: "event: broadcast\ndata: x\n\nevent: tell\ndata: y\n",
			want:   []SSEEvent{{Event: "broadcast", Data: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []SSEEvent
			err := readEvents(strings.NewReader(tt.stream), func(event, data string) {
				got = append(got, SSEEvent{Event: event, Data: data})
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintEvent(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var text bytes.Buffer
	printEvent(&text, now, "console", "a\nb", false)
	assert.Equal(t, "[2024-01-01 12:00:00] console: a b\n", text.String())

	var js bytes.Buffer
	printEvent(&js, now, "tell", "hi", true)
	var evt SSEEvent
	require.NoError(t, json.Unmarshal(js.Bytes(), &evt))
	assert.Equal(t, "tell", evt.Event)
	assert.Equal(t, "hi", evt.Data)
}

func TestClientSendsTokenAndStaff(t *testing.T) {
	var gotAuth, gotStaff string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotStaff = r.Header.Get(staffHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":["ok"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", "76561198000000001")
	var result CommandResult
	require.NoError(t, c.Get(context.Background(), "/api/v1/queue", &result))

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "76561198000000001", gotStaff)
	assert.Equal(t, []string{"ok"}, result.Messages)
}

func TestClientReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ALREADY_BANNED","message":"bob is already banned."}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", "").Post(context.Background(), "/api/v1/bans", map[string]string{"target": "bob"}, nil)
	require.Error(t, err)
	assert.Equal(t, "bob is already banned. (ALREADY_BANNED)", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ALREADY_BANNED", apiErr.Code)
}

func TestOutputText(t *testing.T) {
	allowed := false
	tests := []struct {
		name string
		data any
		want string
	}{
		{
			name: "command result",
			data: CommandResult{
				Messages: []string{"You were added to the guard queue."},
				Status:   &QueueStatus{Tier: "normal", Position: 2},
			},
			want: "You were added to the guard queue.\nQueue: normal tier, position 2\n",
		},
		{
			name: "refused team change",
			data: CommandResult{Messages: []string{}, Allowed: &allowed},
			want: "Allowed: false\n",
		},
		{
			name: "report",
			data: Report{Ideal: 2, Promoted: []string{"a", "b"}},
			want: "Ideal guards: 2\nPromoted: a, b\n",
		},
		{
			name: "no participants",
			data: []Participant{},
			want: "No participants connected\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			out := &Output{format: "text", w: &buf}
			out.Print(tt.data)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDefaultConfigFromEnvironment(t *testing.T) {
	t.Setenv("TECTL_SERVER", "https://enforcer.example:8443")
	t.Setenv("TECTL_STAFF", "76561190000000099")
	t.Setenv("TECTL_TOKEN_FILE", "")

	cfg := DefaultConfig()
	assert.Equal(t, "https://enforcer.example:8443", cfg.ServerURL)
	assert.Equal(t, "76561190000000099", cfg.Staff)
	assert.Equal(t, "text", cfg.Output)
	assert.True(t, strings.HasSuffix(cfg.TokenFile, "token"), cfg.TokenFile)
}

func TestConfigLoadTokenTrimsFile(t *testing.T) {
	path := t.TempDir() + "/token"
	c := &Config{TokenFile: path}
	require.NoError(t, c.SaveToken("abc"))

	loaded := &Config{TokenFile: path}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc", loaded.Token)

	missing := &Config{TokenFile: path + ".missing"}
	require.NoError(t, missing.LoadToken())
	assert.Empty(t, missing.Token)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{ServerURL: "http://localhost:8080", Output: "text"}, false},
		{"https json", Config{ServerURL: "https://enforcer.example.com", Output: "json"}, false},
		{"bad output", Config{ServerURL: "http://localhost:8080", Output: "yaml"}, true},
		{"no scheme", Config{ServerURL: "localhost:8080", Output: "text"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
