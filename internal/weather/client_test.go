package weather

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_DecodesFirstCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = io.WriteString(w, `{"weather":[{"description":"light rain"},{"description":"mist"}],"main":{"temp":12.5}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	report, err := c.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "light rain", report.Description)
	assert.Equal(t, 12.5, report.Temp)
}

func TestCurrent_MissingKeyFailsWithoutRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCurrent_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}).Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}

func TestCurrent_MissingConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"weather":[],"main":{}}`)
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}).Current(context.Background(), "Paris")
	assert.Error(t, err)
}
