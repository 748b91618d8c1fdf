package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duocall/backend/internal/log"
	"github.com/duocall/backend/internal/speech"
	"github.com/duocall/backend/internal/translator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerOpts struct {
	translatorCfg *translator.Config
	speechCfg     *speech.Config
	wsHandler     http.HandlerFunc
}

func newTestRouter(t *testing.T, opts routerOpts) http.Handler {
	t.Helper()
	logger := log.NewTest(t)

	if opts.translatorCfg == nil {
		opts.translatorCfg = &translator.Config{}
	}
	if opts.speechCfg == nil {
		opts.speechCfg = &speech.Config{}
	}
	if opts.wsHandler == nil {
		opts.wsHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusSwitchingProtocols)
		}
	}

	rt := NewRouter(
		&Config{AllowedOrigins: []string{"*"}},
		opts.wsHandler,
		translator.NewClient(opts.translatorCfg, logger),
		speech.NewClient(opts.speechCfg, logger),
		logger,
	)
	return rt.Handler()
}

func upstream(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, routerOpts{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"timestamp"`)
}

func TestTranslateMissingFields(t *testing.T) {
	h := newTestRouter(t, routerOpts{})

	// no target language
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/translate",
		strings.NewReader(`{"text":"hi"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_text_or_to")

	// no text
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/translate?to=en",
		strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_text_or_to")
}

func TestTranslateUnconfigured(t *testing.T) {
	h := newTestRouter(t, routerOpts{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/translate?to=en",
		strings.NewReader(`{"text":"hi"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "missing_translator_key")
}

func TestTranslateSuccess(t *testing.T) {
	url := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"en"}, r.URL.Query()["to"])
		_, _ = w.Write([]byte(`[{"translations":[{"text":"hello","to":"en"}]}]`))
	})
	h := newTestRouter(t, routerOpts{
		translatorCfg: &translator.Config{Endpoint: url, Key: "k", Timeout: time.Second},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/translate?to=en",
		strings.NewReader(`{"text":"hola","from":"es"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"translated":"hello"`)
	assert.Contains(t, w.Body.String(), `"translations":{"en":"hello"}`)
	assert.Contains(t, w.Body.String(), `"raw":`)
}

func TestTranslateUpstreamStatusPassthrough(t *testing.T) {
	url := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429001}}`))
	})
	h := newTestRouter(t, routerOpts{
		translatorCfg: &translator.Config{Endpoint: url, Key: "k", Timeout: time.Second},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/translate?to=en",
		strings.NewReader(`{"text":"hi"}`)))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "translate_failed")
	assert.Contains(t, w.Body.String(), "429001")
}

func TestSpeechTokenUnconfigured(t *testing.T) {
	h := newTestRouter(t, routerOpts{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/speech/token", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "missing_speech_key")
}

func TestSpeechTokenSuccess(t *testing.T) {
	url := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tok-123"))
	})
	h := newTestRouter(t, routerOpts{
		speechCfg: &speech.Config{Endpoint: url, Key: "k", Region: "eastus", Timeout: time.Second},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/speech/token", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok-123"`)
	assert.Contains(t, w.Body.String(), `"region":"eastus"`)
}

func TestSpeechTokenUpstreamStatusPassthrough(t *testing.T) {
	url := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	h := newTestRouter(t, routerOpts{
		speechCfg: &speech.Config{Endpoint: url, Key: "k", Region: "eastus", Timeout: time.Second},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/speech/token", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "speech_token_failed")
}

func TestWebSocketRoute(t *testing.T) {
	called := false
	h := newTestRouter(t, routerOpts{
		wsHandler: func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusBadRequest)
		},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.True(t, called)
}
