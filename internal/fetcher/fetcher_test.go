package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalwhale/newswaters/internal/model"
)

func TestFetchURL_PDFContentTypeSkipsWithoutBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(200)
	}))
	defer srv.Close()

	f := New()
	result, err := f.FetchURL(context.Background(), 1, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkipped, result.Status)
}

func TestFetchURL_UnreachableURLYieldsCanceled(t *testing.T) {
	f := New()
	result, err := f.FetchURL(context.Background(), 1, "http://127.0.0.1:0/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, result.Status)
}

func TestConvertHTMLToText_StripsTagsAndScripts(t *testing.T) {
	htmlContent := `<html><head><script>evil()</script></head><body><p>hello</p> <p>world</p></body></html>`
	text, err := convertHTMLToText(htmlContent)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n  b\t\tc  "))
}
