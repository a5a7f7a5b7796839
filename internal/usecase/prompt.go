package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"travel-agent/internal/domain"
)

const extractionPrompt = "Extract travel details. Return JSON with: " +
	"intent (search_flights|search_hotels|search_both|general_chat), " +
	"origin (IATA code), destination (IATA code or city name), " +
	"departureDate (YYYY-MM-DD), checkIn (YYYY-MM-DD), checkOut (YYYY-MM-DD)."

const personaPrompt = "Travel assistant. Help with flights and hotels. Examples: " +
	"'Find flights from NYC to London on March 15' or " +
	"'Show hotels in Paris from April 1-5' or " +
	"'Plan trip to Tokyo March 10-15'"

const noResponse = "No response generated"

func buildExtractionMessages(message string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: extractionPrompt},
		{Role: "user", Content: message},
	}
}

func buildChatMessages(message string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: personaPrompt},
		{Role: "user", Content: message},
	}
}

// parseIntent decodes the model's JSON. Unknown fields are ignored and no
// semantic validation happens here; the router treats every field as optional.
func parseIntent(raw string) (domain.TravelIntent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	var out domain.TravelIntent
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return domain.TravelIntent{}, fmt.Errorf("usecase: decode travel intent: %w", err)
	}
	return out.Normalize(), nil
}
