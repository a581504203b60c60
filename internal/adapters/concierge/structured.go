package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"hotel_connect/internal/domain"
)

// Parsed is the outcome of asking the model for JSON. Raw holds the model
// text whenever a call succeeded; Err is set when the call or the parse failed.
type Parsed[T any] struct {
	Value T
	Raw   string
	Err   error
}

func (p Parsed[T]) OK() bool { return p.Err == nil }

// OrElse returns Value, or fallback when anything went wrong.
func (p Parsed[T]) OrElse(fallback T) T {
	if p.Err != nil {
		return fallback
	}
	return p.Value
}

var errNoJSON = errors.New("model output contains no JSON")

// extractJSON drops markdown fences and prose around the first JSON value.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", errNoJSON
	}
	end := strings.LastIndexAny(s, "]}")
	if end < start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

// parseList accepts a bare array or an object wrapping it under key.
func parseList[T any](raw, key string) ([]T, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var list []T
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return nil, fmt.Errorf("parse model output: %w", err)
		}
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("parse model output: no %q list", key)
	}
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return list, nil
}

func (a *Concierge) ask(ctx context.Context, prompt string, o completionOpts) (string, error) {
	text, _, err := a.complete(ctx, []message{
		{Role: "system", Content: a.system + "\nRespond with JSON only, no prose."},
		{Role: "user", Content: prompt},
	}, o)
	return text, err
}

// GenerateSuggestions proposes short things the guest might enjoy next.
func (a *Concierge) GenerateSuggestions(ctx context.Context, guest *domain.GuestInfo, stayContext string) Parsed[[]string] {
	prompt := "Suggest up to 5 short, specific things this guest could do or book during their stay. " +
		`Return a JSON array of strings.` + guestNote(guest)
	if stayContext != "" {
		prompt += "\nContext: " + stayContext
	}
	raw, err := a.ask(ctx, prompt, completionOpts{temperature: 0.8, maxTokens: 300})
	if err != nil {
		return Parsed[[]string]{Err: err}
	}
	list, err := parseList[string](raw, "suggestions")
	return Parsed[[]string]{Value: list, Raw: raw, Err: err}
}

// GetRecommendations lists places or services in a category.
func (a *Concierge) GetRecommendations(ctx context.Context, category, preferences string) Parsed[[]domain.Recommendation] {
	prompt := fmt.Sprintf("Recommend up to 5 options for the category %q near or inside the hotel. "+
		`Return a JSON array of objects with "name", "description" and "category".`, category)
	if preferences != "" {
		prompt += "\nGuest preferences: " + preferences
	}
	raw, err := a.ask(ctx, prompt, completionOpts{temperature: 0.7, maxTokens: 600})
	if err != nil {
		return Parsed[[]domain.Recommendation]{Err: err}
	}
	list, err := parseList[domain.Recommendation](raw, "recommendations")
	for i := range list {
		if list[i].Category == "" {
			list[i].Category = category
		}
	}
	return Parsed[[]domain.Recommendation]{Value: list, Raw: raw, Err: err}
}

// NeutralSentiment is reported whenever classification is not possible.
var NeutralSentiment = domain.Sentiment{Sentiment: "neutral", Score: 0.5, Urgency: "low"}

// AnalyzeSentiment classifies a guest message. It never fails; any network
// or parse problem yields NeutralSentiment.
func (a *Concierge) AnalyzeSentiment(ctx context.Context, text string) domain.Sentiment {
	raw, err := a.ask(ctx, "Classify the sentiment of the guest message below. "+
		`Return a JSON object {"sentiment": "positive"|"neutral"|"negative", "score": number between 0 and 1, "urgency": "low"|"medium"|"high"}.`+
		"\nMessage: "+text, completionOpts{temperature: 0, maxTokens: 100})
	if err == nil {
		s, perr := parseSentiment(raw)
		if perr == nil {
			return s
		}
		err = perr
	}
	log.Warn().Err(err).Msg("sentiment analysis fell back to neutral")
	return NeutralSentiment
}

func parseSentiment(raw string) (domain.Sentiment, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return domain.Sentiment{}, err
	}
	var s domain.Sentiment
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return domain.Sentiment{}, fmt.Errorf("parse sentiment: %w", err)
	}
	s.Sentiment = strings.ToLower(s.Sentiment)
	s.Urgency = strings.ToLower(s.Urgency)
	switch {
	case s.Sentiment != "positive" && s.Sentiment != "neutral" && s.Sentiment != "negative":
		return domain.Sentiment{}, fmt.Errorf("unknown sentiment %q", s.Sentiment)
	case s.Urgency != "low" && s.Urgency != "medium" && s.Urgency != "high":
		return domain.Sentiment{}, fmt.Errorf("unknown urgency %q", s.Urgency)
	case s.Score < 0 || s.Score > 1:
		return domain.Sentiment{}, fmt.Errorf("score %v out of range", s.Score)
	}
	return s, nil
}
