package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://apis.datos.gob.ar/georef/api"
	errorBodyLimit  int64 = 1024
	defaultTimeout        = 10 * time.Second
)

// StatusError is returned for non-200 Georef responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("georef: status %d: %s", e.Code, e.Body)
}

// Client calls the Georef API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Georef base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRate limits outgoing requests to perSecond, with bursts of one.
// Zero or negative disables limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type location struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (l location) point() *Point {
	if l.Lat == nil || l.Lon == nil {
		return nil
	}
	return &Point{Lat: *l.Lat, Lon: *l.Lon}
}

type addressResponse struct {
	Addresses []struct {
		Location location `json:"ubicacion"`
	} `json:"direcciones"`
}

type localityResponse struct {
	Localities []struct {
		Centroid location `json:"centroide"`
	} `json:"localidades"`
}

// Address resolves a street address via /direcciones.
func (c *Client) Address(ctx context.Context, q AddressQuery) (*Point, error) {
	params := url.Values{}
	params.Set("direccion", q.Line())
	if q.Locality != "" {
		params.Set("departamento", q.Locality)
	}
	params.Set("provincia", q.Province)
	params.Set("max", "1")

	var resp addressResponse
	if err := c.get(ctx, "direcciones", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Addresses) == 0 {
		return nil, nil
	}
	return resp.Addresses[0].Location.point(), nil
}

// Locality resolves a locality centroid via /localidades.
func (c *Client) Locality(ctx context.Context, q LocalityQuery) (*Point, error) {
	params := url.Values{}
	params.Set("nombre", q.Name)
	params.Set("provincia", q.Province)
	params.Set("max", "1")

	var resp localityResponse
	if err := c.get(ctx, "localidades", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Localities) == 0 {
		return nil, nil
	}
	return resp.Localities[0].Centroid.point(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("georef %s: %w", path, err)
		}
	}

	endpoint := c.baseURL + "/" + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build georef request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("georef %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode georef %s: %w", path, err)
	}
	return nil
}
