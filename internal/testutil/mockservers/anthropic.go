package mockservers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// AnthropicMockServer serves /v1/messages with a canned reply and records requests.
type AnthropicMockServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	reply    string
	status   int
	requests []map[string]interface{}
}

// NewAnthropicMockServer creates a new mock messages API server.
func NewAnthropicMockServer(t *testing.T, reply string) *AnthropicMockServer {
	t.Helper()

	mock := &AnthropicMockServer{reply: reply, status: http.StatusOK}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, body)
		status, reply := mock.status, mock.reply
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"type":  "error",
				"error": map[string]string{"type": "api_error", "message": "mock failure"},
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_mock",
			"type":        "message",
			"role":        "assistant",
			"model":       body["model"],
			"stop_reason": "end_turn",
			"content": []map[string]string{
				{"type": "text", "text": reply},
			},
			"usage": map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
	}))

	t.Cleanup(func() {
		mock.Server.Close()
	})

	return mock
}

// URL returns the base URL to configure the client with.
func (m *AnthropicMockServer) URL() string {
	return m.Server.URL
}

// FailWith makes subsequent calls answer with the given HTTP status.
func (m *AnthropicMockServer) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Requests returns the decoded request bodies received so far.
func (m *AnthropicMockServer) Requests() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]interface{}(nil), m.requests...)
}

// LastRequest returns the most recent request body, or nil.
func (m *AnthropicMockServer) LastRequest() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
