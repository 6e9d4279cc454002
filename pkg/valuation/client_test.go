package valuation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ValueField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2C3CDXGJ5KH505512", r.URL.Query().Get("vin"))
		assert.Equal(t, "45231", r.URL.Query().Get("odometer"))
		w.Write([]byte(`{"value": 12400}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	v, err := c.Value(context.Background(), "2C3CDXGJ5KH505512", "45231")
	require.NoError(t, err)
	assert.Equal(t, 12400.0, v)
}

func TestValue_MMRSynonym(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mmr": 9800}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"?token=x", time.Second)
	v, err := c.Value(context.Background(), "VIN", "")
	require.NoError(t, err)
	assert.Equal(t, 9800.0, v)
}

func TestValue_AbsentValueIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	v, err := c.Value(context.Background(), "VIN", "")
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestValue_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 30*time.Millisecond)
	_, err := c.Value(context.Background(), "VIN", "")
	assert.Error(t, err)
}
