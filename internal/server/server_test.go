package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := requestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/accounts", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	line := buf.String()
	assert.Contains(t, line, `"method":"GET"`)
	assert.Contains(t, line, `"path":"/api/v1/accounts"`)
	assert.Contains(t, line, `"status":418`)
	assert.Contains(t, line, `"message":"request"`)
}
