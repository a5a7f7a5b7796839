package usecase

import "travel-agent/internal/domain"

type routeKind int

const (
	routeChat routeKind = iota
	routeFlights
	routeHotels
	routeBoth
)

func (r routeKind) String() string {
	switch r {
	case routeFlights:
		return "flights"
	case routeHotels:
		return "hotels"
	case routeBoth:
		return "flights+hotels"
	default:
		return "chat"
	}
}

// route picks the branch for an intent. An intent whose required fields are
// incomplete falls through to chat; adapters are never called with a
// missing parameter.
func route(in domain.TravelIntent) routeKind {
	switch {
	case in.Intent == domain.IntentSearchFlights &&
		in.Origin != "" && in.Destination != "" && in.DepartureDate != "":
		return routeFlights
	case in.Intent == domain.IntentSearchHotels &&
		in.Destination != "" && in.CheckIn != "" && in.CheckOut != "":
		return routeHotels
	case in.Intent == domain.IntentSearchBoth &&
		in.Origin != "" && in.Destination != "" && in.DepartureDate != "" &&
		in.CheckIn != "" && in.CheckOut != "":
		return routeBoth
	default:
		return routeChat
	}
}
