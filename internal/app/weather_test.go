package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdfchat/internal/logger"
	"pdfchat/internal/weather"
)

func TestWeatherLookup_Formats(t *testing.T) {
	w := NewWeatherWorker(&fakeFetcher{report: &weather.Report{Description: "clear sky", Temp: 21.5}}, nil, logger.Discard())

	got := w.Lookup(context.Background(), "Paris")

	assert.Equal(t, WeatherResult{Result: "Paris: clear sky, 21.5°C"}, got)
	assert.Equal(t, "Paris: clear sky, 21.5°C", got.Text())
}

func TestWeatherLookup_WholeDegrees(t *testing.T) {
	w := NewWeatherWorker(&fakeFetcher{report: &weather.Report{Description: "mist", Temp: -3}}, nil, logger.Discard())
	assert.Equal(t, "Oslo: mist, -3°C", w.Lookup(context.Background(), "Oslo").Result)
}

func TestWeatherLookup_ErrorIsInBand(t *testing.T) {
	w := NewWeatherWorker(&fakeFetcher{err: weather.ErrMissingAPIKey}, nil, logger.Discard())

	got := w.Lookup(context.Background(), "London")

	assert.Empty(t, got.Result)
	assert.Equal(t, weather.ErrMissingAPIKey.Error(), got.Error)
	assert.Equal(t, got.Error, got.Text())
}

func TestWeatherLookup_CacheHitSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{err: errBoom}
	cache := &fakeCache{entries: map[string]*weather.Report{"Rome": {Description: "sunny", Temp: 30}}}
	w := NewWeatherWorker(fetcher, cache, logger.Discard())

	assert.Equal(t, "Rome: sunny, 30°C", w.Lookup(context.Background(), "Rome").Result)
	assert.Zero(t, fetcher.calls)
}

func TestWeatherLookup_CacheFilledOnSuccessOnly(t *testing.T) {
	cache := &fakeCache{}
	ok := NewWeatherWorker(&fakeFetcher{report: &weather.Report{Description: "rain", Temp: 9}}, cache, logger.Discard())
	ok.Lookup(context.Background(), "Bergen")
	assert.Equal(t, 1, cache.sets)

	failing := NewWeatherWorker(&fakeFetcher{err: errBoom}, cache, logger.Discard())
	failing.Lookup(context.Background(), "Lima")
	assert.Equal(t, 1, cache.sets)
}

func TestWeatherLookup_CacheErrorFallsThrough(t *testing.T) {
	fetcher := &fakeFetcher{report: &weather.Report{Description: "fog", Temp: 4}}
	w := NewWeatherWorker(fetcher, &fakeCache{getErr: errBoom}, logger.Discard())

	assert.Equal(t, "Leeds: fog, 4°C", w.Lookup(context.Background(), "Leeds").Result)
	assert.Equal(t, 1, fetcher.calls)
}
