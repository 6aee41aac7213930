// Package geocode resolves coordinates to a street address through a
// Nominatim-compatible reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"p9e.in/workorders/pkg/metrics"
)

const (
	DefaultEndpoint  = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "workorders/1.0"
	DefaultCity      = "Nepoznato"
	DefaultCountry   = "Hrvatska"
)

// ErrNoResult is returned when the service has no address for a position.
var ErrNoResult = errors.New("no address for position")

// Address is a resolved street address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// String joins the non-empty parts as "street, city, country".
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Options configure a Client. Zero values fall back to the defaults above,
// one request per second and a one-day cache.
type Options struct {
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

// Client is safe for concurrent use.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	cache     *cache.Cache
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		endpoint:  strings.TrimRight(opts.Endpoint, "/"),
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		cache:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		log:       opts.Logger.With("module", "geocode"),
		metrics:   opts.Metrics,
	}
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road          string `json:"road"`
		HouseNumber   string `json:"house_number"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		Town          string `json:"town"`
		City          string `json:"city"`
		Village       string `json:"village"`
		Municipality  string `json:"municipality"`
		Country       string `json:"country"`
	} `json:"address"`
}

// cacheKey rounds to about a metre so jittery fixes share an entry.
func cacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lon, 'f', 5, 64)
}

// Reverse looks up the address at lat/lon. Callers treat any error as
// "no address" and keep the coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	key := cacheKey(lat, lon)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeRequest("cached")
		return v.(Address), nil
	}

	addr, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.metrics.GeocodeRequest("error")
		c.log.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return Address{}, err
	}
	c.metrics.GeocodeRequest("ok")
	c.cache.SetDefault(key, addr)
	return addr, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Address, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Address{}, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/reverse?"+q.Encode(), http.NoBody)
	if err != nil {
		return Address{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "hr")

	resp, err := c.http.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("error fetching address: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("received non-200 response: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Address{}, fmt.Errorf("error reading response body: %w", err)
	}

	var data nominatimResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Address{}, fmt.Errorf("error unmarshaling address: %w", err)
	}
	if data.Error != "" {
		return Address{}, fmt.Errorf("%w: %s", ErrNoResult, data.Error)
	}
	return toAddress(data), nil
}

func toAddress(data nominatimResponse) Address {
	a := data.Address
	var street string
	switch {
	case a.Road != "" && a.HouseNumber != "":
		street = a.Road + " " + a.HouseNumber
	case a.Road != "":
		street = a.Road
	case a.Neighbourhood != "":
		street = a.Neighbourhood
	default:
		street = a.Suburb
	}
	return Address{
		Street:  street,
		City:    firstNonEmpty(a.Town, a.City, a.Village, a.Municipality, DefaultCity),
		Country: firstNonEmpty(a.Country, DefaultCountry),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
