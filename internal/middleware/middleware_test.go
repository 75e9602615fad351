package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/proplatform/internal/testutil"
)

func TestLoggingCapturesStatusAndLevel(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	h := Logging(logger, "/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))

	for _, path := range []string{"/page", "/healthz", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := logs.String()
	assert.Contains(t, out, `"level":"INFO","msg":"http request","method":"GET","path":"/page","status":200,"size":2`)
	assert.Contains(t, out, `"level":"DEBUG","msg":"http request","method":"GET","path":"/healthz"`)
	assert.Contains(t, out, `"level":"ERROR","msg":"http request","method":"GET","path":"/boom","status":502`)
}

func TestRecoveryCallsPanicHandler(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	h := Recovery(logger, DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/profile", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, logs.String(), `"msg":"panic recovered","error":"kaboom"`)
}

func TestRecoveryDefaultsHandlerAndReraisesAbort(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	h := Recovery(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/abort" {
			panic(http.ErrAbortHandler)
		}
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error\n", rr.Body.String())

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
	assert.NotContains(t, logs.String(), `"path":"/abort"`)
}
