package app

import (
	"regexp"
	"strings"
)

const DefaultCity = "London"

var (
	weatherTriggers = []string{"weather", "temperature", "forecast", "rain", "sunny"}

	// Best effort: "in" followed by letters, hyphens and spaces. It will
	// happily swallow trailing words ("in Paris today").
	cityPattern = regexp.MustCompile(`\bin ([A-Za-z\-\s]+)`)
)

// Action is what a query should trigger. It is either WeatherAction or
// DocumentQueryAction.
type Action interface {
	Name() string
	isAction()
}

type WeatherAction struct {
	City string
}

type DocumentQueryAction struct {
	Query string
}

func (WeatherAction) Name() string       { return "weather" }
func (DocumentQueryAction) Name() string { return "document_query" }

func (WeatherAction) isAction()       {}
func (DocumentQueryAction) isAction() {}

// Classify routes text without touching the network.
func Classify(text string) Action {
	lower := strings.ToLower(text)
	for _, trigger := range weatherTriggers {
		if strings.Contains(lower, trigger) {
			return WeatherAction{City: extractCity(text)}
		}
	}
	return DocumentQueryAction{Query: text}
}

func extractCity(text string) string {
	m := cityPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultCity
	}
	city := strings.TrimSpace(m[1])
	if city == "" {
		return DefaultCity
	}
	return city
}
