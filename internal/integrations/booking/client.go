package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travel-agent/internal/domain"
	"travel-agent/internal/integrations/upstream"
)

const (
	DefaultHost = "booking-com15.p.rapidapi.com"
	maxHotels   = 5
)

// ErrCityNotFound is returned when destination lookup yields no identifier.
var ErrCityNotFound = domain.ErrCityNotFound

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError = upstream.HTTPStatusError

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type destinationResponse struct {
	Data []struct {
		DestID flexString `json:"dest_id"`
	} `json:"data"`
}

type hotelsResponse struct {
	Data *struct {
		Hotels []struct {
			Property *property `json:"property"`
		} `json:"hotels"`
	} `json:"data"`
}

type property struct {
	Name           string  `json:"name"`
	ReviewScore    float64 `json:"reviewScore"`
	ReviewCount    int     `json:"reviewCount"`
	CityName       string  `json:"cityName"`
	PriceBreakdown *struct {
		GrossPrice *struct {
			Value float64 `json:"value"`
		} `json:"grossPrice"`
	} `json:"priceBreakdown"`
}

// Client searches hotels through the Booking.com RapidAPI gateway.
type Client struct {
	baseURL    string
	host       string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the scheme and host requests are sent to. The
// X-RapidAPI-Host header keeps the configured host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHost(host string) Option {
	return func(c *Client) {
		if h := strings.TrimSpace(host); h != "" {
			c.host = h
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client authenticating with the RapidAPI key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("booking: api key must not be empty")
	}
	c := &Client{
		host:       DefaultHost,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = "https://" + c.host
	}
	return c, nil
}

// SearchHotels resolves cityName to a destination and returns up to five
// hotels for the stay, in upstream order.
func (c *Client) SearchHotels(ctx context.Context, cityName, checkIn, checkOut string) ([]domain.HotelOffer, error) {
	hotels, err := c.searchHotels(ctx, cityName, checkIn, checkOut)
	if err != nil {
		return nil, &domain.SearchError{Provider: "hotel", Err: err}
	}
	return hotels, nil
}

func (c *Client) searchHotels(ctx context.Context, cityName, checkIn, checkOut string) ([]domain.HotelOffer, error) {
	destID, err := c.resolveDestination(ctx, cityName)
	if err != nil {
		return nil, err
	}

	raw, err := c.get(ctx, "/api/v1/hotels/searchHotels", url.Values{
		"dest_id":          {destID},
		"search_type":      {"city"},
		"arrival_date":     {checkIn},
		"departure_date":   {checkOut},
		"adults":           {"1"},
		"room_qty":         {"1"},
		"units":            {"metric"},
		"page_number":      {"1"},
		"temperature_unit": {"c"},
		"languagecode":     {"en-us"},
		"currency_code":    {"USD"},
	})
	if err != nil {
		return nil, err
	}

	var payload hotelsResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("booking: decode hotels: %w", err)
	}
	if payload.Data == nil {
		return []domain.HotelOffer{}, nil
	}

	hotels := payload.Data.Hotels
	if len(hotels) > maxHotels {
		hotels = hotels[:maxHotels]
	}
	out := make([]domain.HotelOffer, 0, len(hotels))
	for i, h := range hotels {
		out = append(out, toHotelOffer(i+1, h.Property, cityName))
	}
	return out, nil
}

func (c *Client) resolveDestination(ctx context.Context, cityName string) (string, error) {
	raw, err := c.get(ctx, "/api/v1/hotels/searchDestination", url.Values{
		"query":  {cityName},
		"locale": {"en-gb"},
	})
	if err != nil {
		return "", err
	}

	var payload destinationResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("booking: decode destinations: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].DestID == "" {
		return "", ErrCityNotFound
	}
	return string(payload.Data[0].DestID), nil
}

func toHotelOffer(rank int, p *property, cityName string) domain.HotelOffer {
	offer := domain.HotelOffer{
		Rank:     rank,
		Name:     "Unknown Hotel",
		Rating:   domain.NotAvailable,
		Price:    domain.NotAvailable,
		Location: cityName,
	}
	if p == nil {
		return offer
	}
	if p.Name != "" {
		offer.Name = p.Name
	}
	if p.ReviewScore != 0 {
		offer.Rating = strconv.FormatFloat(p.ReviewScore, 'f', -1, 64)
	}
	if p.PriceBreakdown != nil && p.PriceBreakdown.GrossPrice != nil && p.PriceBreakdown.GrossPrice.Value != 0 {
		offer.Price = fmt.Sprintf("$%.0f", math.Round(p.PriceBreakdown.GrossPrice.Value))
	}
	if p.CityName != "" {
		offer.Location = p.CityName
	}
	offer.ReviewCount = p.ReviewCount
	return offer
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	endpoint := strings.TrimRight(c.baseURL, "/") + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("booking: create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	return upstream.DoJSON(c.httpClient, "booking", req)
}
