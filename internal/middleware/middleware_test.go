package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgps-group/AMRIE/internal/domain"
	"github.com/cgps-group/AMRIE/internal/logging"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CorrelationIDKey))
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(CorrelationIDHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCorrelationID(t *testing.T) {
	r := newRouter(CorrelationID())

	t.Run("generated", func(t *testing.T) {
		w := get(r, "")
		id := w.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		w := get(r, "lab-run-42")
		assert.Equal(t, "lab-run-42", w.Header().Get(CorrelationIDHeader))
		assert.Equal(t, "lab-run-42", w.Body.String())
	})
}

func TestSecurityHeaders(t *testing.T) {
	w := get(newRouter(SecurityHeaders()), "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	r := newRouter(CorrelationID(), RateLimit(0.001, 2))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)

	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body struct {
		Error         *domain.InterpretationError `json:"error"`
		CorrelationID string                      `json:"correlation_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, domain.ErrCodeRateLimited, body.Error.Code)
	assert.Equal(t, "too many requests", body.Error.Message)
	assert.Equal(t, w.Header().Get(CorrelationIDHeader), body.CorrelationID)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newRouter(RateLimit(0, 0))
	for range 20 {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

func TestRequestLogger(t *testing.T) {
	r := newRouter(CorrelationID(), RequestLogger(logging.Discard()))
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}
