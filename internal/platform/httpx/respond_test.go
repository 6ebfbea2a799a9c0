package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	type body struct {
		Amount int64 `json:"amount"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":100,"ammount":5}`))
	var b body
	require.Error(t, DecodeJSON(r, &b))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":100}`))
	require.NoError(t, DecodeJSON(r, &b))
	require.Equal(t, int64(100), b.Amount)
}

func TestProblemWritesRFC7807Body(t *testing.T) {
	w := httptest.NewRecorder()
	Problem(w, 422, "Validation Failed", "amount must be positive")
	require.Equal(t, 422, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), `"status":422`)
	require.Contains(t, w.Body.String(), "amount must be positive")
}
