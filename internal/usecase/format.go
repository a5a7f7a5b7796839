package usecase

import (
	"fmt"
	"strings"

	"travel-agent/internal/domain"
)

const (
	flightBookingHint = "Book at: Google Flights, Kayak, or airline websites"
	hotelBookingHint  = "Book at: Booking.com, Hotels.com, or directly with hotels"
	tripBookingHint   = "Book flights: Google Flights, Kayak | Book hotels: Booking.com"
)

func formatFlights(in domain.TravelIntent, flights []domain.FlightOffer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flights from %s to %s (%s)\n\n", in.Origin, in.Destination, in.DepartureDate)
	if len(flights) == 0 {
		b.WriteString("No flights found.\n\n")
	}
	for _, f := range flights {
		fmt.Fprintf(&b, "%d. %s %s\n", f.Rank, f.Airline, f.FlightNumber)
		fmt.Fprintf(&b, "   Depart: %s\n", f.Departure)
		fmt.Fprintf(&b, "   Arrive: %s\n", f.Arrival)
		fmt.Fprintf(&b, "   Duration: %s\n", f.Duration)
		fmt.Fprintf(&b, "   Price: %s\n", f.Price)
		fmt.Fprintf(&b, "   Type: %s\n\n", f.Stops)
	}
	b.WriteString(flightBookingHint)
	return b.String()
}

func formatHotels(in domain.TravelIntent, hotels []domain.HotelOffer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hotels in %s (%s to %s)\n\n", in.Destination, in.CheckIn, in.CheckOut)
	if len(hotels) == 0 {
		b.WriteString("No hotels found.\n\n")
	}
	for _, h := range hotels {
		fmt.Fprintf(&b, "%d. %s\n", h.Rank, h.Name)
		fmt.Fprintf(&b, "   Rating: %s/10 (%d reviews)\n", h.Rating, h.ReviewCount)
		fmt.Fprintf(&b, "   Price: %s total\n", h.Price)
		fmt.Fprintf(&b, "   Location: %s\n\n", h.Location)
	}
	b.WriteString(hotelBookingHint)
	return b.String()
}

// formatTrip renders the compact one-line-per-offer summary used when both
// searches ran.
func formatTrip(in domain.TravelIntent, flights []domain.FlightOffer, hotels []domain.HotelOffer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FLIGHTS from %s to %s (%s)\n\n", in.Origin, in.Destination, in.DepartureDate)
	if len(flights) == 0 {
		b.WriteString("No flights found.\n")
	}
	for _, f := range flights {
		fmt.Fprintf(&b, "%d. %s %s - %s (%s)\n", f.Rank, f.Airline, f.FlightNumber, f.Price, f.Stops)
	}
	fmt.Fprintf(&b, "\nHOTELS in %s (%s to %s)\n\n", in.Destination, in.CheckIn, in.CheckOut)
	if len(hotels) == 0 {
		b.WriteString("No hotels found.\n")
	}
	for _, h := range hotels {
		fmt.Fprintf(&b, "%d. %s - %s (%s/10)\n", h.Rank, h.Name, h.Price, h.Rating)
	}
	b.WriteString("\n" + tripBookingHint)
	return b.String()
}
