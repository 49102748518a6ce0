package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFile(t *testing.T, rr *httptest.ResponseRecorder) fileResp {
	t.Helper()
	var out fileResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestFiles_Lifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(uploadRequest(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 body")))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decodeFile(t, rr)
	_, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", created.FileName)
	assert.Equal(t, "uploads/"+created.ID+"/report.pdf", created.URL)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), created.UploadDate)

	obj, ok := env.objects.Object(created.ID + "/report.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "report.pdf", obj.OriginalName)
	assert.Equal(t, "%PDF-1.4 body", string(obj.Data))

	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/file/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decodeFile(t, rr))

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/v1/file/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Zero(t, env.objects.Len())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/file/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"File not found"}`, rr.Body.String())

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/v1/file/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 1, env.objects.Deletes())
}

func TestUpload_SniffsMissingContentType(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(uploadRequest(t, "pixel.png", "", []byte("\x89PNG\r\n\x1a\n0000")))
	require.Equal(t, http.StatusCreated, rr.Code)

	created := decodeFile(t, rr)
	obj, ok := env.objects.Object(created.ID + "/pixel.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "\x89PNG\r\n\x1a\n0000", string(obj.Data), "sniffing must not consume the body")
}

func TestUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t, true)

	tests := map[string]*http.Request{
		"no body": httptest.NewRequest(http.MethodPost, "/v1/file", nil),
		"json body": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/v1/file", strings.NewReader(`{"a":1}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}(),
		"wrong field": func() *http.Request {
			body, ct := multipartBody(t, "avatar", "a.txt", "text/plain", []byte("x"))
			r := httptest.NewRequest(http.MethodPost, "/v1/file", body)
			r.Header.Set("Content-Type", ct)
			return r
		}(),
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			rr := env.do(req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"message":"No file provided"}`, rr.Body.String())
		})
	}
	assert.Zero(t, env.objects.Puts())
}

func TestUpload_MalformedMultipart(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/file", strings.NewReader("--xyz\r\nbroken"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	rr := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Bad Request"}`, rr.Body.String())
}

func TestUpload_BackendFailures(t *testing.T) {
	t.Run("object store", func(t *testing.T) {
		env := newTestEnv(t, true)
		env.objects.PutErr = errors.New("s3 down")

		rr := env.do(uploadRequest(t, "a.txt", "text/plain", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"message":"Bad Request"}`, rr.Body.String())
		assert.Equal(t, float64(1), env.metrics.Total("file.upload.errors"))
	})

	t.Run("store not ready", func(t *testing.T) {
		env := newTestEnv(t, false)

		rr := env.do(uploadRequest(t, "a.txt", "text/plain", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, env.objects.Puts())
	})
}

func TestUpload_SizeLimit(t *testing.T) {
	env := newTestEnv(t, true, withMaxUpload(64))

	rr := env.do(uploadRequest(t, "big.bin", "application/octet-stream", []byte(strings.Repeat("a", 1024))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var n int64
	require.NoError(t, env.conn.Table("files").Count(&n).Error)
	assert.Zero(t, n)
}

func TestFiles_UnknownID(t *testing.T) {
	env := newTestEnv(t, true)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/v1/file/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"message":"File not found"}`, rr.Body.String())

		rr = env.do(httptest.NewRequest(http.MethodDelete, "/v1/file/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}
	assert.Zero(t, env.objects.Deletes())
}

func TestFiles_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t, false)
	id := uuid.NewString()

	rr := env.do(httptest.NewRequest(http.MethodGet, "/v1/file/"+id, nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rr.Body.String())

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/v1/file/"+id, nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestFiles_DeleteObjectFailure(t *testing.T) {
	env := newTestEnv(t, true)
	rr := env.do(uploadRequest(t, "a.txt", "text/plain", []byte("x")))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeFile(t, rr)

	env.objects.DeleteErr = errors.New("access denied")
	rr = env.do(httptest.NewRequest(http.MethodDelete, "/v1/file/"+created.ID, nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/v1/file/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFiles_CollectionBadRequest(t *testing.T) {
	env := newTestEnv(t, true)

	for _, m := range []string{http.MethodGet, http.MethodDelete} {
		rr := env.do(httptest.NewRequest(m, "/v1/file", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, m)
		assert.JSONEq(t, `{"message":"Bad Request"}`, rr.Body.String())
	}
}

func TestFiles_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true)
	id := uuid.NewString()

	cases := map[string][]string{
		"/v1/file":       {http.MethodHead, http.MethodOptions, http.MethodPatch, http.MethodPut},
		"/v1/file/" + id: {http.MethodHead, http.MethodOptions, http.MethodPatch, http.MethodPut, http.MethodPost},
	}
	for path, methods := range cases {
		for _, m := range methods {
			rr := env.do(httptest.NewRequest(m, path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, "%s %s", m, path)
			assertNoCache(t, rr.Header())
			if m != http.MethodHead {
				assert.JSONEq(t, `{"message":"Method Not Allowed"}`, rr.Body.String())
			}
		}
	}
}
