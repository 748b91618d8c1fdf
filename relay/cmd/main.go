package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"

	"github.com/duocall/backend/internal/config"
	"github.com/duocall/backend/internal/httputil"
	"github.com/duocall/backend/internal/log"
	"github.com/duocall/backend/internal/otel"
	"github.com/duocall/backend/internal/speech"
	"github.com/duocall/backend/internal/translator"
	"github.com/duocall/backend/internal/workflow"
	"github.com/duocall/backend/presence"
	"github.com/duocall/backend/relay/signal"
	"github.com/duocall/backend/relay/transport"
)

type Config struct {
	App        config.App        `mapstructure:"app"`
	HTTP       httputil.Config   `mapstructure:"http"`
	Otel       otel.Config       `mapstructure:"otel"`
	Signal     signal.Config     `mapstructure:"signal"`
	Transport  transport.Config  `mapstructure:"transport"`
	Translator translator.Config `mapstructure:"translator"`
	Speech     speech.Config     `mapstructure:"speech"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		config.Setup(v, "app")
		httputil.Setup(v, "http")
		otel.Setup(v, "otel")
		signal.Setup(v, "signal")
		transport.Setup(v, "transport")
		translator.Setup(v, "translator")
		speech.Setup(v, "speech")

		v.SetDefault("http.addr", "0.0.0.0:8080")
	})
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	otelShutdown, err := otel.Init(ctx, &config.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting relay...")

	coordinator := presence.NewCoordinator(
		clockwork.NewRealClock(),
		logger.Module("Presence"),
	)
	signalServer := signal.NewServer(
		&config.Signal,
		coordinator,
		logger.Module("Signal"),
	)

	translatorClient := translator.NewClient(&config.Translator, logger.Module("Translator"))
	speechClient := speech.NewClient(&config.Speech, logger.Module("Speech"))

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(
		&config.Transport,
		signalServer.HandleWebSocket,
		translatorClient,
		speechClient,
		logger.Module("HTTP"),
	)

	server := httputil.NewServer(&config.HTTP, router.Handler())
	go func() {
		logger.Info("Starting HTTP server", log.String("addr", config.HTTP.Addr))
		if err := server.Listen(); err != nil {
			logger.Fatal("Failed to start HTTP server", log.Error(err))
		}
	}()

	cleanup := func(ctx context.Context) {
		_ = server.Shutdown(ctx)

		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
