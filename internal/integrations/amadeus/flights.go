package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"travel-agent/internal/domain"
)

const (
	candidateOffers = 10
	maxOffers       = 5
)

// TokenSource yields bearer tokens for the flight-offers API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type flightOffersResponse struct {
	Data []flightOffer `json:"data"`
}

type flightOffer struct {
	Itineraries []itinerary `json:"itineraries"`
	Price       *struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
}

type itinerary struct {
	Duration string    `json:"duration"`
	Segments []segment `json:"segments"`
}

type segment struct {
	CarrierCode string    `json:"carrierCode"`
	Number      string    `json:"number"`
	Departure   *endpoint `json:"departure"`
	Arrival     *endpoint `json:"arrival"`
}

type endpoint struct {
	At string `json:"at"`
}

// Client searches flight offers on the Amadeus self-service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a flight search Client authenticated by tokens.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("amadeus: token source must not be nil")
	}
	o := applyOptions(opts)
	return &Client{baseURL: o.baseURL, httpClient: o.httpClient, tokens: tokens}, nil
}

// SearchFlights returns up to five one-way offers in upstream order.
func (c *Client) SearchFlights(ctx context.Context, origin, destination, departureDate string) ([]domain.FlightOffer, error) {
	offers, err := c.searchFlights(ctx, origin, destination, departureDate)
	if err != nil {
		return nil, &domain.SearchError{Provider: "flight", Err: err}
	}
	return offers, nil
}

func (c *Client) searchFlights(ctx context.Context, origin, destination, departureDate string) ([]domain.FlightOffer, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {departureDate},
		"adults":                  {"1"},
		"max":                     {fmt.Sprintf("%d", candidateOffers)},
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + "/v2/shopping/flight-offers?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("amadeus: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	raw, err := doJSONRequest(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	var payload flightOffersResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("amadeus: decode flight offers: %w", err)
	}

	data := payload.Data
	if len(data) > maxOffers {
		data = data[:maxOffers]
	}
	out := make([]domain.FlightOffer, 0, len(data))
	for i, fo := range data {
		out = append(out, toFlightOffer(i+1, fo))
	}
	return out, nil
}

// toFlightOffer summarizes an offer by its first itinerary and first segment.
func toFlightOffer(rank int, fo flightOffer) domain.FlightOffer {
	offer := domain.FlightOffer{
		Rank:         rank,
		Airline:      domain.NotAvailable,
		FlightNumber: domain.NotAvailable,
		Departure:    domain.NotAvailable,
		Arrival:      domain.NotAvailable,
		Duration:     domain.NotAvailable,
		Stops:        "Direct",
	}

	total, currency := domain.NotAvailable, "USD"
	if fo.Price != nil {
		total = orNA(fo.Price.Total)
		if fo.Price.Currency != "" {
			currency = fo.Price.Currency
		}
	}
	offer.Price = total + " " + currency

	if len(fo.Itineraries) == 0 {
		return offer
	}
	it := fo.Itineraries[0]
	offer.Duration = orNA(it.Duration)
	if len(it.Segments) > 1 {
		offer.Stops = "1+ stops"
	}
	if len(it.Segments) == 0 {
		return offer
	}

	seg := it.Segments[0]
	offer.Airline = orNA(seg.CarrierCode)
	if seg.CarrierCode != "" && seg.Number != "" {
		offer.FlightNumber = seg.CarrierCode + seg.Number
	}
	if seg.Departure != nil {
		offer.Departure = orNA(seg.Departure.At)
	}
	if seg.Arrival != nil {
		offer.Arrival = orNA(seg.Arrival.At)
	}
	return offer
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotAvailable
	}
	return s
}
