package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestGate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		req    func() *http.Request
		reason string
	}{
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/healthz?x=1", nil)
		}, "query_params"},
		{"bare query key", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/healthz?probe", nil)
		}, "query_params"},
		{"body", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/healthz", strings.NewReader("{}"))
		}, "content_length"},
		{"chunked", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			r.TransferEncoding = []string{"chunked"}
			return r
		}, "transfer_encoding"},
		{"transfer encoding header", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			r.Header.Set("Transfer-Encoding", "gzip")
			return r
		}, "transfer_encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reason, rejectReason(tt.req()))

			env := newTestEnv(t, true)
			rr := env.do(tt.req())

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, rr.Body.String())
			assertNoCache(t, rr.Header())
			assert.Zero(t, env.healthRows(t), "rejected before the store is touched")
		})
	}
}

func TestRequestGate_Passes(t *testing.T) {
	assert.Empty(t, rejectReason(httptest.NewRequest(http.MethodGet, "/healthz", nil)))
	assert.Empty(t, rejectReason(httptest.NewRequest(http.MethodGet, "/healthz?", nil)))
}

func TestRequestGate_OnlyGET(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(httptest.NewRequest(http.MethodPost, "/healthz?x=1", strings.NewReader("x")))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRequestGate_NotOnFileRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/v1/file?x=1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Bad Request"}`, rr.Body.String())
}
