package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"pdfchat/internal/weather"
)

type WeatherFetcher interface {
	Current(ctx context.Context, city string) (*weather.Report, error)
}

// WeatherCache is optional; a nil cache disables caching.
type WeatherCache interface {
	Get(ctx context.Context, city string) (*weather.Report, bool, error)
	Set(ctx context.Context, city string, report *weather.Report) error
}

// WeatherResult carries either a formatted Result or an Error message.
type WeatherResult struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r WeatherResult) Text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Result
}

type WeatherWorker struct {
	fetcher WeatherFetcher
	cache   WeatherCache
	log     *logrus.Entry
}

func NewWeatherWorker(fetcher WeatherFetcher, cache WeatherCache, log *logrus.Entry) *WeatherWorker {
	return &WeatherWorker{fetcher: fetcher, cache: cache, log: log}
}

// Lookup never fails; errors are reported in the result.
func (w *WeatherWorker) Lookup(ctx context.Context, city string) WeatherResult {
	log := w.log.WithField("city", city)

	if w.cache != nil {
		report, hit, err := w.cache.Get(ctx, city)
		if err != nil {
			log.WithError(err).Warn("weather cache get failed")
		} else if hit {
			return WeatherResult{Result: formatWeather(city, report)}
		}
	}

	report, err := w.fetcher.Current(ctx, city)
	if err != nil {
		log.WithError(err).Warn("weather lookup failed")
		return WeatherResult{Error: err.Error()}
	}

	if w.cache != nil {
		if err := w.cache.Set(ctx, city, report); err != nil {
			log.WithError(err).Warn("weather cache set failed")
		}
	}
	return WeatherResult{Result: formatWeather(city, report)}
}

func formatWeather(city string, r *weather.Report) string {
	return fmt.Sprintf("%s: %s, %s°C", city, r.Description, strconv.FormatFloat(r.Temp, 'f', -1, 64))
}
