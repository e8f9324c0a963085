package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"pdfchat/internal/weather"
)

// WeatherCache keeps successful lookups for a short TTL so repeated questions
// about the same city do not spend OpenWeather quota.
type WeatherCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewWeatherCache(client *redisv9.Client, ttl time.Duration) *WeatherCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &WeatherCache{client: client, ttl: ttl}
}

func (c *WeatherCache) Get(ctx context.Context, city string) (*weather.Report, bool, error) {
	raw, err := c.client.Get(ctx, weatherKey(city)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get weather failed: %w", err)
	}

	var report weather.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached weather failed: %w", err)
	}
	return &report, true, nil
}

func (c *WeatherCache) Set(ctx context.Context, city string, report *weather.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal weather cache failed: %w", err)
	}
	if err := c.client.Set(ctx, weatherKey(city), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set weather failed: %w", err)
	}
	return nil
}

func weatherKey(city string) string {
	return "weather:current:" + strings.ToLower(strings.Join(strings.Fields(city), " "))
}
