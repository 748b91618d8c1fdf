package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
	"github.com/duocall/backend/internal/speech"
	"github.com/duocall/backend/internal/translator"
	"github.com/duocall/backend/internal/validation"
)

type Router struct {
	cfg        *Config
	wsHandler  http.HandlerFunc
	translator *translator.Client
	speech     *speech.Client
	logger     *log.Logger
}

func NewRouter(
	cfg *Config,
	wsHandler http.HandlerFunc,
	trans *translator.Client,
	speechClient *speech.Client,
	logger *log.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		wsHandler:  wsHandler,
		translator: trans,
		speech:     speechClient,
		logger:     logger,
	}
}

func (rt *Router) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("relay"))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(rt.cfg.AllowedOrigins) == 1 && rt.cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = rt.cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", rt.health)
	r.POST("/translate", rt.translate)
	r.GET("/speech/token", rt.speechToken)
	r.GET("/ws", gin.WrapF(rt.wsHandler))
	return r
}

func (rt *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) translate(c *gin.Context) {
	var req TranslateRequest
	to := c.QueryArray("to")
	if err := c.ShouldBindJSON(&req); err != nil || len(to) == 0 {
		body := gin.H{"error": "missing_text_or_to"}
		if details := validation.FormatValidationError(err); len(details) > 0 {
			body["details"] = details
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	if !rt.translator.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "missing_translator_key"})
		return
	}

	res, err := rt.translator.Translate(c.Request.Context(), req.Text, req.From, to)
	if err != nil {
		rt.upstreamError(c, err, "translate_failed")
		return
	}

	c.JSON(http.StatusOK, TranslateResponse{
		Translated:   res.Translated,
		Translations: res.Translations,
		Raw:          res.Raw,
	})
}

func (rt *Router) speechToken(c *gin.Context) {
	if !rt.speech.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "missing_speech_key"})
		return
	}

	tok, err := rt.speech.Token(c.Request.Context())
	if err != nil {
		rt.upstreamError(c, err, "speech_token_failed")
		return
	}
	c.JSON(http.StatusOK, tok)
}

// upstreamError passes the collaborator's status code through; anything
// that never reached the upstream becomes a 502.
func (rt *Router) upstreamError(c *gin.Context, err error, code string) {
	body := gin.H{"error": code}
	status := http.StatusBadGateway

	if upErr, ok := errors.As[*translator.UpstreamError](err); ok {
		status = (*upErr).Status
		if len((*upErr).Detail) > 0 {
			body["detail"] = json.RawMessage((*upErr).Detail)
		}
	} else if upErr, ok := errors.As[*speech.UpstreamError](err); ok {
		status = (*upErr).Status
	}

	rt.logger.Warn("Collaborator request failed",
		log.String("code", code),
		log.Int("status", status),
		log.Error(err))
	c.JSON(status, body)
}
