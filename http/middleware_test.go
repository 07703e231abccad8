package http_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chathttp "github.com/fwojciec/chatrelay/http"
	"github.com/stretchr/testify/assert"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()
	var order []string
	mw := func(name string) chathttp.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := chathttp.Chain(mw("a"), mw("b"), mw("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestLogging(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := chathttp.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/interact", strings.NewReader("{}")))

	line := buf.String()
	assert.Contains(t, line, `"method":"POST"`)
	assert.Contains(t, line, `"path":"/interact"`)
	assert.Contains(t, line, `"status":418`)
	assert.Contains(t, line, `"bytes":15`)
	assert.Contains(t, line, `"request_bytes":2`)
}

func TestAuth_NoTokensPassesThrough(t *testing.T) {
	t.Parallel()
	called := false
	h := chathttp.Auth(nil, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
}

func TestAuth_MalformedHeader(t *testing.T) {
	t.Parallel()
	h := chathttp.Auth([]string{"t1", "t2"}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	tests := map[string]int{
		"":            http.StatusUnauthorized,
		"Basic abc":   http.StatusUnauthorized,
		"Bearer ":     http.StatusUnauthorized,
		"Bearer nope": http.StatusForbidden,
		"Bearer t2":   http.StatusOK,
		"Bearer t1":   http.StatusOK,
		"Bearer t1t2": http.StatusForbidden,
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, header)
	}
}

func TestCORS_AllowAll(t *testing.T) {
	t.Parallel()
	h := chathttp.CORS(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "198.51.100.7:1234", "", "", "198.51.100.7"},
		{"untrusted peer ignores forwarded", "198.51.100.7:1234", "1.1.1.1", "", "198.51.100.7"},
		{"trusted proxy forwarded", "127.0.0.1:9000", "1.1.1.1, 10.0.0.2", "", "1.1.1.1"},
		{"trusted proxy real ip", "10.0.0.5:9000", "", "2.2.2.2", "2.2.2.2"},
		{"trusted proxy bad header", "10.0.0.5:9000", "not-an-ip", "", "10.0.0.5"},
		{"no port", "198.51.100.7", "", "", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, chathttp.ClientIP(req))
		})
	}
}
