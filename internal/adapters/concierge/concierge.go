// Package concierge answers guest chat messages through a chat-completion API.
package concierge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	// maxHistory bounds how many prior turns are sent with a message.
	maxHistory = 10
)

var ErrEmptyMessage = errors.New("concierge: empty message")

type Config struct {
	APIKey           string   `json:"apiKey"`
	Model            string   `json:"model"`
	BaseURL          string   `json:"baseUrl"`
	HotelName        string   `json:"hotelName"`
	HotelDescription string   `json:"hotelDescription"`
	Amenities        []string `json:"amenities"`
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HotelName == "" {
		c.HotelName = "our hotel"
	}
	return c
}

func (c Config) Validate() error {
	if err := shared.RequireKeys("apiKey", c.APIKey); err != nil {
		return &domain.InvalidConfigError{Domain: domain.DomainAIConcierge, Reason: err.Error()}
	}
	return nil
}

type Concierge struct {
	cfg    Config
	system string
	c      *transport.Client
}

func New(cfg Config, opts ...transport.Option) (*Concierge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	opts = append([]transport.Option{transport.WithAuth(transport.BearerToken(cfg.APIKey))}, opts...)
	return &Concierge{
		cfg:    cfg,
		system: systemPrompt(cfg),
		c:      transport.New("ai-concierge", cfg.BaseURL, opts...),
	}, nil
}

func (a *Concierge) Model() string { return a.cfg.Model }

func systemPrompt(cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the digital concierge of %s.", cfg.HotelName)
	if cfg.HotelDescription != "" {
		b.WriteString(" " + strings.TrimSpace(cfg.HotelDescription))
	}
	if len(cfg.Amenities) > 0 {
		fmt.Fprintf(&b, "\nAmenities: %s.", strings.Join(cfg.Amenities, ", "))
	}
	b.WriteString("\nAnswer guests briefly and warmly. Never invent prices, opening hours or availability you were not given;" +
		" offer to connect the guest with the front desk instead.")
	return b.String()
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionOpts struct {
	temperature float64
	maxTokens   int
}

// complete sends one chat completion and returns the first choice's text.
func (a *Concierge) complete(ctx context.Context, msgs []message, o completionOpts) (string, string, error) {
	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
	err := a.c.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/chat/completions",
		JSON: map[string]any{
			"model":       a.cfg.Model,
			"messages":    msgs,
			"temperature": o.temperature,
			"max_tokens":  o.maxTokens,
		},
	}, &out)
	if err != nil {
		return "", "", err
	}
	if len(out.Choices) == 0 {
		return "", "", errors.New("chat completion returned no choices")
	}
	model := out.Model
	if model == "" {
		model = a.cfg.Model
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), model, nil
}

// ProcessMessage answers one guest message. Escalation is decided from the
// guest's own words, whatever the model replies.
func (a *Concierge) ProcessMessage(ctx context.Context, text string, history []domain.ChatTurn, guest *domain.GuestInfo) (domain.ConciergeReply, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ConciergeReply{}, ErrEmptyMessage
	}
	msgs := []message{{Role: "system", Content: a.system + guestNote(guest)}}
	for _, t := range boundHistory(history) {
		msgs = append(msgs, message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, message{Role: "user", Content: text})

	escalate := RequiresEscalation(text)
	reply, model, err := a.complete(ctx, msgs, completionOpts{temperature: 0.7, maxTokens: 500})
	if err != nil {
		return domain.ConciergeReply{}, fmt.Errorf("concierge reply: %w", err)
	}
	if escalate {
		log.Info().Str("model", model).Msg("guest message flagged for staff escalation")
	}
	return domain.ConciergeReply{Response: reply, RequiresEscalation: escalate, Model: model}, nil
}

func guestNote(g *domain.GuestInfo) string {
	if g == nil {
		return ""
	}
	var parts []string
	if g.Name != "" {
		parts = append(parts, "The guest's name is "+g.Name+".")
	}
	if g.RoomNumber != "" {
		parts = append(parts, "They are staying in room "+g.RoomNumber+".")
	}
	if g.Language != "" {
		parts = append(parts, "Reply in "+g.Language+".")
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, " ")
}

// boundHistory keeps the last maxHistory user/assistant turns.
func boundHistory(h []domain.ChatTurn) []domain.ChatTurn {
	out := make([]domain.ChatTurn, 0, len(h))
	for _, t := range h {
		if (t.Role == "user" || t.Role == "assistant") && strings.TrimSpace(t.Content) != "" {
			out = append(out, t)
		}
	}
	if len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	return out
}

var escalationKeywords = []string{
	"emergency", "urgent", "complaint", "complain", "refund", "medical", "doctor",
	"ambulance", "police", "fire", "injured", "injury", "stolen", "theft",
	"harass", "lawyer", "manager", "unsafe",
}

// RequiresEscalation reports whether a guest message needs a human: a
// case-insensitive substring scan over a fixed keyword list.
func RequiresEscalation(text string) bool {
	t := strings.ToLower(text)
	for _, k := range escalationKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
