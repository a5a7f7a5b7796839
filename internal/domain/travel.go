package domain

import "strings"

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentSearchFlights Intent = "search_flights"
	IntentSearchHotels  Intent = "search_hotels"
	IntentSearchBoth    Intent = "search_both"
	IntentGeneralChat   Intent = "general_chat"
)

// NotAvailable marks a field the upstream payload did not carry.
const NotAvailable = "N/A"

// TravelIntent is the structured reading of a free-text travel request.
// Empty trip fields are absent; Intent is always set.
type TravelIntent struct {
	Intent        Intent `json:"intent"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureDate string `json:"departureDate,omitempty"`
	CheckIn       string `json:"checkIn,omitempty"`
	CheckOut      string `json:"checkOut,omitempty"`
}

// Normalize trims every field and defaults a missing intent to general chat.
func (t TravelIntent) Normalize() TravelIntent {
	out := TravelIntent{
		Intent:        Intent(strings.TrimSpace(string(t.Intent))),
		Origin:        strings.TrimSpace(t.Origin),
		Destination:   strings.TrimSpace(t.Destination),
		DepartureDate: strings.TrimSpace(t.DepartureDate),
		CheckIn:       strings.TrimSpace(t.CheckIn),
		CheckOut:      strings.TrimSpace(t.CheckOut),
	}
	if out.Intent == "" {
		out.Intent = IntentGeneralChat
	}
	return out
}

// FlightOffer is one ranked flight result.
type FlightOffer struct {
	Rank         int    `json:"rank"`
	Airline      string `json:"airline"`
	FlightNumber string `json:"flightNumber"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	Duration     string `json:"duration"`
	Price        string `json:"price"`
	Stops        string `json:"stops"`
}

// HotelOffer is one ranked hotel result.
type HotelOffer struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Rating      string `json:"rating"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	ReviewCount int    `json:"reviewCount"`
}
