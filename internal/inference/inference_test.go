package inference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Instruct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instruct", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"completion":"a summary"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.Instruct(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
}

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.Embed(context.Background(), "some sentence")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, out)
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Instruct(context.Background(), "x")
	assert.Error(t, err)
}
