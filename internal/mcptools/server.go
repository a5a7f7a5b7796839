// Package mcptools exposes the travel searches as MCP tools over
// streamable HTTP.
package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"travel-agent/internal/domain"
	"travel-agent/internal/usecase"
)

const (
	ToolSearchFlights = "search_flights"
	ToolSearchHotels  = "search_hotels"
	ToolPlanTrip      = "plan_trip"
)

type TravelService interface {
	FindFlights(ctx context.Context, origin, destination, departureDate string) ([]domain.FlightOffer, error)
	FindHotels(ctx context.Context, cityName, checkIn, checkOut string) ([]domain.HotelOffer, error)
	Reply(ctx context.Context, in usecase.Request) (usecase.Reply, error)
}

type Server struct {
	svc TravelService
	mcp *server.MCPServer
}

func NewServer(svc TravelService, version string) (*Server, error) {
	if svc == nil {
		return nil, errors.New("mcptools: travel service must not be nil")
	}
	s := &Server{
		svc: svc,
		mcp: server.NewMCPServer("travel-agent", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// Handler serves the MCP endpoint. Sessions are not tracked; every request
// stands alone.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolSearchFlights,
		mcp.WithDescription("Search up to 5 one-way flight offers for one adult."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Origin IATA code, e.g. JFK")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Destination IATA code, e.g. LHR")),
		mcp.WithString("departure_date", mcp.Required(), mcp.Description("Departure date, YYYY-MM-DD")),
	), s.handleSearchFlights)

	s.mcp.AddTool(mcp.NewTool(ToolSearchHotels,
		mcp.WithDescription("Search up to 5 hotels in a city for one adult, one room."),
		mcp.WithString("city", mcp.Required(), mcp.Description("City name, e.g. Paris")),
		mcp.WithString("check_in", mcp.Required(), mcp.Description("Arrival date, YYYY-MM-DD")),
		mcp.WithString("check_out", mcp.Required(), mcp.Description("Departure date, YYYY-MM-DD")),
	), s.handleSearchHotels)

	s.mcp.AddTool(mcp.NewTool(ToolPlanTrip,
		mcp.WithDescription("Answer a free-text travel request, searching flights and hotels when the request names them."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The traveller's request in plain language")),
	), s.handlePlanTrip)
}
