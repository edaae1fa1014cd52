package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var v struct {
		Symbol string `json:"symbol"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"symbol":"AAPL"}`))
	require.NoError(t, ReadJSON(r, &v))
	assert.Equal(t, "AAPL", v.Symbol)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"symbol":"AAPL","extra":1}`))
	assert.Error(t, ReadJSON(r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.EqualError(t, ReadJSON(r, &v), "request body required")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusConflict, ErrorResponse{Error: "nope"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}
