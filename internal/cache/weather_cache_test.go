package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeatherKey_NormalizesCity(t *testing.T) {
	assert.Equal(t, "weather:current:new york", weatherKey("  New   York "))
	assert.Equal(t, weatherKey("paris"), weatherKey("PARIS"))
}
