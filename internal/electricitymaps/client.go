package electricitymaps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	carbontracker "github.com/superdango/digital-carbon-tracker"
)

const (
	DefaultBaseURL = "https://api.electricitymap.org"
	DefaultTimeout = 5 * time.Second

	// maxResponseBytes bounds the size of a response body
	maxResponseBytes = 1 << 20

	latestCarbonIntensityPath = "/v3/carbon-intensity/latest"
	operation                 = "GET " + latestCarbonIntensityPath
)

type Option func(c *Client)

// WithToken sets the auth token sent with every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithBaseURL overrides the api location
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout of a request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the http client used to reach the api. Its timeout is
// overridden by WithTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithDefaultZone sets the zone requested when none is given
func WithDefaultZone(zone string) Option {
	return func(c *Client) {
		c.defaultZone = zone
	}
}

// Client fetches the latest carbon intensity of a zone from the Electricity Maps api.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	timeout     time.Duration
	defaultZone string
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     DefaultBaseURL,
		timeout:     DefaultTimeout,
		defaultZone: carbontracker.DefaultZone,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		return nil, fmt.Errorf("electricity maps auth token is not set")
	}

	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("invalid electricity maps base url: %w", err)
	}

	if c.httpClient == nil {
		c.httpClient = new(http.Client)
	} else {
		copied := *c.httpClient
		c.httpClient = &copied
	}
	c.httpClient.Timeout = c.timeout

	return c, nil
}

// APIError is returned when the api responds with a non successful status code
type APIError struct {
	StatusCode int
	Body       string
}

func (apiErr *APIError) Error() string {
	return fmt.Sprintf("electricity maps api responded with status %d: %s", apiErr.StatusCode, apiErr.Body)
}

// latestResponse is the subset of the latest carbon intensity response used by the client
type latestResponse struct {
	Zone                      string             `json:"zone"`
	CarbonIntensity           float64            `json:"carbonIntensity"`
	PowerConsumptionBreakdown map[string]float64 `json:"powerConsumptionBreakdown"`
	Datetime                  string             `json:"datetime"`
	IsEstimated               bool               `json:"isEstimated"`
}

// CarbonData implements the carbontracker.Source interface. Exactly one request is sent.
func (c *Client) CarbonData(ctx context.Context, zone string) (carbontracker.CarbonData, error) {
	if zone == "" {
		zone = c.defaultZone
	}

	endpoint := c.baseURL + latestCarbonIntensityPath + "?" + url.Values{"zone": {zone}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return carbontracker.CarbonData{}, &carbontracker.SourceErr{Err: fmt.Errorf("failed to create request: %w", err), Operation: operation}
	}
	req.Header.Set("auth-token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return carbontracker.CarbonData{}, &carbontracker.SourceErr{Err: fmt.Errorf("failed to fetch %s carbon intensity: %w", zone, err), Operation: operation}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return carbontracker.CarbonData{}, &carbontracker.SourceErr{Err: fmt.Errorf("failed to read response body: %w", err), Operation: operation}
	}
	if len(body) > maxResponseBytes {
		return carbontracker.CarbonData{}, &carbontracker.SourceErr{Err: fmt.Errorf("response body exceeds %d bytes", maxResponseBytes), Operation: operation}
	}

	slog.Debug("electricity maps response", "zone", zone, "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return carbontracker.CarbonData{}, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	latest, err := decodeLatest(body)
	if err != nil {
		return carbontracker.CarbonData{}, &carbontracker.SourceErr{Err: err, Operation: operation}
	}

	data := carbontracker.CarbonData{
		Zone:        zone,
		Intensity:   carbontracker.Intensity(latest.CarbonIntensity).Clamp(),
		Breakdown:   carbontracker.PowerBreakdown(latest.PowerConsumptionBreakdown),
		IsEstimated: latest.IsEstimated,
	}

	if latest.Zone != "" {
		data.Zone = latest.Zone
	}

	if latest.Datetime != "" {
		data.Datetime, err = time.Parse(time.RFC3339, latest.Datetime)
		if err != nil {
			slog.Warn("cannot parse carbon intensity datetime", "zone", zone, "datetime", latest.Datetime, "err", err)
		}
	}

	return data, nil
}

// decodeLatest decodes the response body. Missing intensity defaults to 0 and
// missing breakdown to an empty map. Null breakdown values are ignored.
func decodeLatest(body []byte) (*latestResponse, error) {
	raw := make(map[string]any)
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal carbon intensity response: %w", err)
	}

	if breakdown, ok := raw["powerConsumptionBreakdown"].(map[string]any); ok {
		for source, percent := range breakdown {
			if percent == nil {
				delete(breakdown, source)
			}
		}
	}

	latest := new(latestResponse)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           latest,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create carbon intensity response decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode carbon intensity response: %w", err)
	}

	if latest.PowerConsumptionBreakdown == nil {
		latest.PowerConsumptionBreakdown = make(map[string]float64)
	}

	return latest, nil
}
