package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitRequestBody(t *testing.T) {
	var (
		read    string
		readErr error
	)
	handler := LimitRequestBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		read, readErr = string(b), err
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/products", strings.NewReader(`{"name":"oats"}`)))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.NoError(t, readErr)
	assert.Equal(t, `{"name":"oats"}`, read)

	// declared length over the limit never reaches the handler
	read = ""
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/products", strings.NewReader(`{"name":"rolled oats with honey"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, read)

	// unknown length is cut off while reading
	req := httptest.NewRequest("POST", "/products", io.NopCloser(strings.NewReader(`{"name":"rolled oats with honey"}`)))
	req.ContentLength = -1
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	var maxBytesErr *http.MaxBytesError
	assert.True(t, errors.As(readErr, &maxBytesErr))
	assert.Equal(t, int64(16), maxBytesErr.Limit)
}

func TestLimitRequestBody_DrainsUnread(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(`{"weight":120}`)}
	handler := LimitRequestBody(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("PUT", "/entries/e1", nil)
	req.Body = body
	req.ContentLength = 14
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, body.closed)
	assert.Zero(t, body.Len())
}

type trackingBody struct {
	*strings.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}
