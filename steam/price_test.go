package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raykavin/skinhunter/logger"
	"github.com/raykavin/skinhunter/logger/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	log, err := zerolog.New("error", "2006-01-02 15:04:05", false, false)
	require.NoError(t, err)
	return zerolog.NewAdapter(log.Logger)
}

// testConfig returns a configuration with pacing small enough for tests
func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		InventoryURL:   baseURL,
		RequestPacing:  time.Microsecond,
		PagePacing:     time.Microsecond,
		RateLimitPause: time.Microsecond,
		RetryBase:      time.Microsecond,
		RetryStep:      time.Microsecond,
		ThrottleMin:    time.Microsecond,
		ThrottleMax:    2 * time.Microsecond,
	}
}

func TestClient_Price(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "730", r.URL.Query().Get("appid"))
		require.Equal(t, "1", r.URL.Query().Get("currency"))
		require.Equal(t, "AK-47 | Redline (Field-Tested)", r.URL.Query().Get("market_hash_name"))

		w.Write([]byte(`{"success":true,"lowest_price":"$45.32","median_price":"$46.10","volume":"1,208"}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL), testLogger(t))

	price, found := client.Price(context.Background(), "AK-47 | Redline (Field-Tested)")
	require.True(t, found)
	require.Equal(t, "45.32", price.StringFixed(2))
}

func TestClient_PriceEmptyName(t *testing.T) {
	client := New(testConfig("http://invalid.local"), testLogger(t))

	_, found := client.Price(context.Background(), "")
	require.False(t, found)
}

func TestClient_PriceFailures(t *testing.T) {
	tt := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, ""},
		{"server error", http.StatusInternalServerError, ""},
		{"malformed body", http.StatusOK, `{"success":`},
		{"unknown item", http.StatusOK, `{"success":false}`},
		{"no listings", http.StatusOK, `{"success":true,"lowest_price":""}`},
		{"unparsable price", http.StatusOK, `{"success":true,"lowest_price":"n/a"}`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := New(testConfig(server.URL), testLogger(t))

			price, found := client.Price(context.Background(), "AWP | Asiimov (Field-Tested)")
			require.False(t, found)
			require.True(t, price.IsZero())
		})
	}
}

func TestParsePrice(t *testing.T) {
	tt := []struct {
		raw  string
		want string
	}{
		{"$45.32", "45.32"},
		{"$0.03", "0.03"},
		{"45,00", "45.00"},
		{"$1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234", "1234.00"},
		{"12,50€", "12.50"},
		{"45.32 USD", "45.32"},
		{"₴1 850,50", "1850.50"},
	}

	for _, tc := range tt {
		t.Run(tc.raw, func(t *testing.T) {
			price, err := parsePrice(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, price.StringFixed(2))

			// Parsing its own canonical form yields the same value
			again, err := parsePrice(price.String())
			require.NoError(t, err)
			require.True(t, price.Equal(again))
		})
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, raw := range []string{"", "free", "$0.00", "-$1.00", "$"} {
		t.Run(raw, func(t *testing.T) {
			_, err := parsePrice(raw)
			require.Error(t, err)
		})
	}
}
