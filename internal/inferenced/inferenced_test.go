package inferenced

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2Normalize_UnitLength(t *testing.T) {
	got := l2Normalize([]float32{3, 4})
	var sumSq float64
	for _, f := range got {
		sumSq += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestL2Normalize_ZeroVectorUnchanged(t *testing.T) {
	got := l2Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, got)
}

func TestServer_Healthz(t *testing.T) {
	srv := New(Config{BaseURL: "http://127.0.0.1:0"})
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Ok", rec.Body.String())
}
