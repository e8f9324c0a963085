package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned per call, so a service without a weather key
// still starts and only weather questions fail.
var ErrMissingAPIKey = errors.New("OpenWeather API key is not configured")

type Config struct {
	APIKey            string
	BaseURL           string
	Units             string
	Timeout           time.Duration
	RequestsPerMinute int
}

type Report struct {
	Description string
	Temp        float64
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Current fetches the current conditions for city.
func (c *Client) Current(ctx context.Context, city string) (*Report, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("weather rate limit wait failed: %w", err)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weather response status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse weather json failed: %w", err)
	}
	if len(parsed.Weather) == 0 || parsed.Main.Temp == nil {
		return nil, fmt.Errorf("weather response for %q is missing conditions", city)
	}
	return &Report{Description: parsed.Weather[0].Description, Temp: *parsed.Main.Temp}, nil
}
