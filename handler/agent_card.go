package handler

import "strings"

// AgentCard is the discovery document served at /.well-known/agent-card.json.
type AgentCard struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	URL                string       `json:"url"`
	Version            string       `json:"version"`
	Capabilities       Capabilities `json:"capabilities"`
	DefaultInputModes  []string     `json:"defaultInputModes"`
	DefaultOutputModes []string     `json:"defaultOutputModes"`
}

type Capabilities struct {
	Streaming bool `json:"streaming"`
	MultiTurn bool `json:"multiTurn"`
}

// NewAgentCard describes this agent as reachable at baseURL.
func NewAgentCard(baseURL string) AgentCard {
	return AgentCard{
		Name:        "Travel Research Agent",
		Description: "AI travel assistant - searches real flights (Amadeus) and hotels (Booking.com) worldwide",
		URL:         strings.TrimRight(baseURL, "/"),
		Version:     "0.3.0",
		Capabilities: Capabilities{
			Streaming: true,
			MultiTurn: false,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
	}
}
