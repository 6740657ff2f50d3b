package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/testutil/mockservers"
)

func newTestCoach(t *testing.T, reply string) (*Coach, *mockservers.AnthropicMockServer) {
	t.Helper()
	mock := mockservers.NewAnthropicMockServer(t, reply)
	client := NewClient(Config{APIKey: "test-key", BaseURL: mock.URL(), Model: "test-model"})
	return NewCoach(client, 0), mock
}

func TestCoach_Chat(t *testing.T) {
	coach, mock := newTestCoach(t, "Arrancá por los calientes.")
	profile := &core.Profile{UserID: "u1", Nombre: "Ana", Negocio: "Consultoría", ICPPrincipal: "Pymes"}

	history := []Message{
		{Role: "user", Content: "Hola"},
		{Role: "assistant", Content: "¿Cómo venís?"},
	}
	reply, err := coach.Chat(context.Background(), profile, "  ¿Por dónde empiezo?  ", history)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Respuesta != "Arrancá por los calientes." {
		t.Errorf("Respuesta = %q", reply.Respuesta)
	}
	if reply.TokensUsed != 15 {
		t.Errorf("TokensUsed = %d, want 15", reply.TokensUsed)
	}

	req := mock.LastRequest()
	system, _ := req["system"].(string)
	for _, want := range []string{"Ana", "Consultoría", "Pymes"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	msgs, _ := req["messages"].([]interface{})
	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(msgs))
	}
	last := msgs[2].(map[string]interface{})
	if last["role"] != "user" || last["content"] != "¿Por dónde empiezo?" {
		t.Errorf("last message = %v", last)
	}
	if req["max_tokens"] != float64(1500) {
		t.Errorf("max_tokens = %v, want 1500", req["max_tokens"])
	}
}

func TestCoach_Chat_Errors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		coach, _ := newTestCoach(t, "x")
		_, err := coach.Chat(context.Background(), nil, "   ", nil)
		if !errors.Is(err, core.ErrMissingRequired) {
			t.Errorf("err = %v, want ErrMissingRequired", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		coach := NewCoach(NewClient(Config{}), 0)
		_, err := coach.Chat(context.Background(), nil, "hola", nil)
		if !errors.Is(err, core.ErrLLMUnavailable) {
			t.Errorf("err = %v, want ErrLLMUnavailable", err)
		}
	})

	t.Run("nil coach", func(t *testing.T) {
		var coach *Coach
		if coach.Available() {
			t.Error("nil coach should not be available")
		}
	})

	t.Run("upstream down", func(t *testing.T) {
		coach, mock := newTestCoach(t, "x")
		mock.FailWith(http.StatusBadGateway)
		_, err := coach.Chat(context.Background(), nil, "hola", nil)
		if !errors.Is(err, core.ErrLLMUnavailable) {
			t.Errorf("err = %v, want ErrLLMUnavailable", err)
		}
	})
}

func TestTrimHistory(t *testing.T) {
	var long []Message
	for i := 0; i < 14; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		long = append(long, Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}

	tests := []struct {
		name    string
		history []Message
		n       int
		want    []Message
	}{
		{"empty", nil, 10, nil},
		{
			"drops invalid turns",
			[]Message{{Role: "system", Content: "x"}, {Role: "user", Content: " "}, {Role: "user", Content: "hola"}},
			10,
			[]Message{{Role: "user", Content: "hola"}},
		},
		{
			// last 10 start at m4 (user)
			"keeps last n", long, 10, long[4:],
		},
		{
			// last 9 start at m5 (assistant), which is dropped
			"starts with user", long, 9, long[6:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimHistory(tt.history, tt.n)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("trimHistory mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSystemPrompt_Defaults(t *testing.T) {
	prompt := SystemPrompt(nil)
	if !strings.Contains(prompt, "Sales Coach de el usuario") {
		t.Errorf("prompt should fall back to a generic name:\n%s", prompt)
	}
	if strings.Contains(prompt, "Revenue") {
		t.Error("prompt without profile should not mention revenue")
	}

	withGoal := SystemPrompt(&core.Profile{Nombre: "Leo", RevenueActual: 4000, RevenueObjetivo: 10000})
	if !strings.Contains(withGoal, "$4000 actual, $10000 objetivo") {
		t.Errorf("prompt should include revenue:\n%s", withGoal)
	}
}

func TestCoach_GenerateSpeech(t *testing.T) {
	coach, mock := newTestCoach(t, "  Hola Juan, vi que...  \n")

	speech, err := coach.GenerateSpeech(context.Background(), SpeechRequest{
		Persona:  map[string]interface{}{"nombre": "Juan", "cargo": "CEO"},
		Contexto: map[string]interface{}{"conexion": "Universidad"},
	})
	if err != nil {
		t.Fatalf("GenerateSpeech: %v", err)
	}
	if speech != "Hola Juan, vi que..." {
		t.Errorf("speech = %q", speech)
	}

	req := mock.LastRequest()
	msgs := req["messages"].([]interface{})
	content := msgs[0].(map[string]interface{})["content"].(string)
	if !strings.Contains(content, `"cargo":"CEO"`) || !strings.Contains(content, "Universidad") {
		t.Errorf("prompt should embed persona and contexto:\n%s", content)
	}
	if req["max_tokens"] != float64(300) {
		t.Errorf("max_tokens = %v, want 300", req["max_tokens"])
	}

	if _, err := coach.GenerateSpeech(context.Background(), SpeechRequest{}); !errors.Is(err, core.ErrMissingRequired) {
		t.Errorf("empty persona err = %v, want ErrMissingRequired", err)
	}
}
