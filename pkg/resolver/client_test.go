package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "81234567", r.URL.Query().Get("lot_id"))
		assert.Equal(t, "copart123", r.URL.Query().Get("token"))
		w.Write([]byte(`{"vin": "2C3CDXGJ5KH505512", "odometer": "45231"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/resolveVin?token=copart123", time.Second)
	res, err := c.Resolve(context.Background(), "81234567")
	require.NoError(t, err)
	assert.Equal(t, "2C3CDXGJ5KH505512", res.VIN)
	assert.Equal(t, "45231", res.Odometer)
}

func TestResolve_EmptyResponseTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Resolve(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, res.VIN)
	assert.Empty(t, res.Odometer)
}

func TestResolve_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"vin": "too late"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 30*time.Millisecond)
	start := time.Now()
	_, err := c.Resolve(context.Background(), "1")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestResolve_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Resolve(context.Background(), "1")
	assert.Error(t, err)
}

func TestResolve_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Resolve(context.Background(), "1")
	assert.Error(t, err)
}
