package mcptools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"travel-agent/internal/usecase"
)

func (s *Server) handleSearchFlights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origin, ok := requireArg(req, "origin")
	if !ok {
		return ValidationError("origin is required"), nil
	}
	destination, ok := requireArg(req, "destination")
	if !ok {
		return ValidationError("destination is required"), nil
	}
	date, ok := requireArg(req, "departure_date")
	if !ok {
		return ValidationError("departure_date is required"), nil
	}

	flights, err := s.svc.FindFlights(ctx, origin, destination, date)
	if err != nil {
		return FromError(err), nil
	}
	return jsonResult(flights)
}

func (s *Server) handleSearchHotels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, ok := requireArg(req, "city")
	if !ok {
		return ValidationError("city is required"), nil
	}
	checkIn, ok := requireArg(req, "check_in")
	if !ok {
		return ValidationError("check_in is required"), nil
	}
	checkOut, ok := requireArg(req, "check_out")
	if !ok {
		return ValidationError("check_out is required"), nil
	}

	hotels, err := s.svc.FindHotels(ctx, city, checkIn, checkOut)
	if err != nil {
		return FromError(err), nil
	}
	return jsonResult(hotels)
}

func (s *Server) handlePlanTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, ok := requireArg(req, "message")
	if !ok {
		return ValidationError("message is required"), nil
	}

	reply, err := s.svc.Reply(ctx, usecase.Request{Message: message})
	if err != nil {
		return FromError(err), nil
	}
	return mcp.NewToolResultText(reply.Message), nil
}

// requireArg returns a trimmed string argument; blank counts as missing.
func requireArg(req mcp.CallToolRequest, name string) (string, bool) {
	v, err := req.RequireString(name)
	if err != nil {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return InternalError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
