package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salescoach/salescoach/internal/core"
)

// DefaultHistoryTurns is how many past turns the chat keeps
const DefaultHistoryTurns = 10

// Coach is the conversational side of the sales coach
type Coach struct {
	client       *Client
	historyTurns int
}

// NewCoach creates a chat coach. historyTurns <= 0 uses DefaultHistoryTurns.
func NewCoach(client *Client, historyTurns int) *Coach {
	if historyTurns <= 0 {
		historyTurns = DefaultHistoryTurns
	}
	return &Coach{client: client, historyTurns: historyTurns}
}

// Available reports whether the underlying client has credentials
func (c *Coach) Available() bool {
	return c != nil && c.client != nil && c.client.IsConfigured()
}

// Reply is a chat answer
type Reply struct {
	Respuesta  string `json:"respuesta"`
	TokensUsed int    `json:"tokens_used"`
}

// Chat answers a user message with the profile as context
func (c *Coach) Chat(ctx context.Context, profile *core.Profile, message string, history []Message) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message: %w", core.ErrMissingRequired)
	}
	if !c.Available() {
		return nil, core.ErrLLMUnavailable
	}

	messages := append(trimHistory(history, c.historyTurns), Message{Role: "user", Content: message})
	resp, err := c.client.Complete(ctx, Request{
		System:      SystemPrompt(profile),
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("coach chat: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("coach chat: empty response")
	}
	return &Reply{
		Respuesta:  text,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// SystemPrompt builds the coach persona for a profile. A nil profile is allowed.
func SystemPrompt(profile *core.Profile) string {
	nombre, negocio, icp := "el usuario", "sin definir", "sin definir"
	if profile != nil {
		if profile.Nombre != "" {
			nombre = profile.Nombre
		}
		if profile.Negocio != "" {
			negocio = profile.Negocio
		}
		if profile.ICPPrincipal != "" {
			icp = profile.ICPPrincipal
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sos el Sales Coach de %s.\n\n", nombre)
	b.WriteString("TU PERSONALIDAD:\n")
	b.WriteString("- Argentino, directo, práctico\n")
	b.WriteString("- Experto en ventas B2B/B2C\n")
	b.WriteString("- Celebrás logros y alertás problemas\n")
	b.WriteString("- Al grano\n\n")
	b.WriteString("CONTEXTO USUARIO:\n")
	fmt.Fprintf(&b, "- Negocio: %s\n", negocio)
	fmt.Fprintf(&b, "- ICP: %s\n", icp)
	if profile != nil && profile.RevenueObjetivo > 0 {
		fmt.Fprintf(&b, "- Revenue: $%.0f actual, $%.0f objetivo\n", profile.RevenueActual, profile.RevenueObjetivo)
	}
	b.WriteString("\nTU TRABAJO:\n")
	b.WriteString("1. Conversar naturalmente\n")
	b.WriteString("2. Ayudar con estrategia comercial\n")
	b.WriteString("3. Dar recomendaciones prácticas\n\n")
	b.WriteString("Respondé conversacionalmente, claro y directo.")
	return b.String()
}

// trimHistory keeps the last n valid turns. The API needs the first turn to be the user's.
func trimHistory(history []Message, n int) []Message {
	var valid []Message
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		valid = append(valid, m)
	}
	if len(valid) > n {
		valid = valid[len(valid)-n:]
	}
	for len(valid) > 0 && valid[0].Role != "user" {
		valid = valid[1:]
	}
	return valid
}

// SpeechRequest describes who the outreach is for
type SpeechRequest struct {
	Persona  map[string]interface{} `json:"persona"`
	Contexto map[string]interface{} `json:"contexto"`
}

// GenerateSpeech writes a short personalized LinkedIn opener
func (c *Coach) GenerateSpeech(ctx context.Context, req SpeechRequest) (string, error) {
	if len(req.Persona) == 0 {
		return "", fmt.Errorf("persona: %w", core.ErrMissingRequired)
	}
	if !c.Available() {
		return "", core.ErrLLMUnavailable
	}

	persona, err := json.Marshal(req.Persona)
	if err != nil {
		return "", fmt.Errorf("marshal persona: %w", err)
	}
	contexto, err := json.Marshal(req.Contexto)
	if err != nil {
		return "", fmt.Errorf("marshal contexto: %w", err)
	}

	prompt := fmt.Sprintf(`Generá un speech personalizado para LinkedIn.

Persona: %s
Contexto: %s

Reglas:
- Máximo 5 líneas
- Tono argentino coloquial
- Si hay conexión común, mencionarla
- Pain point específico
- Resultado concreto con número
- CTA: "15 min call"

Devolvé SOLO el speech.`, persona, contexto)

	resp, err := c.client.Complete(ctx, Request{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.8,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("generate speech: %w", err)
	}

	speech := strings.TrimSpace(resp.Text())
	if speech == "" {
		return "", fmt.Errorf("generate speech: empty response")
	}
	return speech, nil
}
