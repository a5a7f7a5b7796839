package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"travel-agent/internal/domain"
)

type fakeBooking struct {
	destBody    string
	hotelsBody  string
	hotelStatus int
	hotelCalls  atomic.Int32
}

func (f *fakeBooking) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
		require.Equal(t, DefaultHost, r.Header.Get("X-RapidAPI-Host"))
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/v1/hotels/searchDestination":
			require.Equal(t, "Paris", q.Get("query"))
			require.Equal(t, "en-gb", q.Get("locale"))
			_, _ = w.Write([]byte(f.destBody))
		case "/api/v1/hotels/searchHotels":
			f.hotelCalls.Add(1)
			require.Equal(t, "-1456928", q.Get("dest_id"))
			require.Equal(t, "2025-04-01", q.Get("arrival_date"))
			require.Equal(t, "2025-04-05", q.Get("departure_date"))
			require.Equal(t, "1", q.Get("adults"))
			require.Equal(t, "1", q.Get("room_qty"))
			require.Equal(t, "metric", q.Get("units"))
			require.Equal(t, "USD", q.Get("currency_code"))
			require.Equal(t, "1", q.Get("page_number"))
			if f.hotelStatus != 0 {
				w.WriteHeader(f.hotelStatus)
			}
			_, _ = w.Write([]byte(f.hotelsBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestClient(t *testing.T, fb *fakeBooking) *Client {
	t.Helper()
	srv := httptest.NewServer(fb.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient("rapid-key", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return c
}

func hotelJSON(i int) string {
	return fmt.Sprintf(`{"property":{"name":"Hotel %d","reviewScore":8.5,"reviewCount":%d,"cityName":"Paris","priceBreakdown":{"grossPrice":{"value":%d.6}}}}`, i, i*100, 400+i)
}

func TestNewClient_Defaults(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)

	c, err := NewClient("rapid-key")
	require.NoError(t, err)
	require.Equal(t, "https://"+DefaultHost, c.baseURL)
}

func TestSearchHotels_TruncatesAndMaps(t *testing.T) {
	hotels := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		hotels = append(hotels, hotelJSON(i))
	}
	fb := &fakeBooking{
		destBody:   `{"data":[{"dest_id":"-1456928"},{"dest_id":"-999"}]}`,
		hotelsBody: `{"data":{"hotels":[` + strings.Join(hotels, ",") + `]}}`,
	}
	c := newTestClient(t, fb)

	got, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, domain.HotelOffer{
		Rank:        1,
		Name:        "Hotel 1",
		Rating:      "8.5",
		Price:       "$402",
		Location:    "Paris",
		ReviewCount: 100,
	}, got[0])
	for i, h := range got {
		require.Equal(t, i+1, h.Rank)
		require.Equal(t, fmt.Sprintf("Hotel %d", i+1), h.Name)
	}
}

func TestSearchHotels_NumericDestID(t *testing.T) {
	fb := &fakeBooking{
		destBody:   `{"data":[{"dest_id":-1456928}]}`,
		hotelsBody: `{"data":{"hotels":[]}}`,
	}
	c := newTestClient(t, fb)

	got, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
	require.NoError(t, err)
	require.Empty(t, got)
	require.EqualValues(t, 1, fb.hotelCalls.Load())
}

func TestSearchHotels_MissingFieldsDefaulted(t *testing.T) {
	fb := &fakeBooking{
		destBody:   `{"data":[{"dest_id":"-1456928"}]}`,
		hotelsBody: `{"data":{"hotels":[{},{"property":{"name":"Le Petit"}}]}}`,
	}
	c := newTestClient(t, fb)

	got, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, domain.HotelOffer{Rank: 1, Name: "Unknown Hotel", Rating: "N/A", Price: "N/A", Location: "Paris"}, got[0])
	require.Equal(t, domain.HotelOffer{Rank: 2, Name: "Le Petit", Rating: "N/A", Price: "N/A", Location: "Paris"}, got[1])
}

func TestSearchHotels_CityNotFound(t *testing.T) {
	for _, body := range []string{`{"data":[]}`, `{}`, `{"data":[{"name":"Paris"}]}`} {
		fb := &fakeBooking{destBody: body}
		c := newTestClient(t, fb)

		got, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
		require.Error(t, err)
		require.Nil(t, got)
		require.True(t, errors.Is(err, ErrCityNotFound))
		var searchErr *domain.SearchError
		require.True(t, errors.As(err, &searchErr))
		require.Equal(t, "hotel search failed: city not found", err.Error())
		require.Zero(t, fb.hotelCalls.Load())
	}
}

func TestSearchHotels_UpstreamError(t *testing.T) {
	fb := &fakeBooking{
		destBody:    `{"data":[{"dest_id":"-1456928"}]}`,
		hotelsBody:  `{"message":"quota exceeded"}`,
		hotelStatus: http.StatusTooManyRequests,
	}
	c := newTestClient(t, fb)

	_, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
	require.False(t, errors.Is(err, ErrCityNotFound))
}

func TestSearchHotels_MalformedHotels(t *testing.T) {
	fb := &fakeBooking{
		destBody:   `{"data":[{"dest_id":"-1456928"}]}`,
		hotelsBody: `not-json`,
	}
	c := newTestClient(t, fb)

	_, err := c.SearchHotels(context.Background(), "Paris", "2025-04-01", "2025-04-05")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode hotels")
}
