// cmd/diagnosis/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"diagnosis-service/internal/api"
	"diagnosis-service/internal/api/handlers"
	"diagnosis-service/internal/api/responses"
	"diagnosis-service/internal/config"
	"diagnosis-service/internal/core/auth"
	"diagnosis-service/internal/core/diagnosis"
	"diagnosis-service/internal/core/market"
	"diagnosis-service/internal/core/statement"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	configPaths := flag.String("config", "", "arquivos de configuração TOML separados por vírgula")
	flag.Parse()

	cfg, err := config.Load(splitPaths(*configPaths)...)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	logger, err := responses.InitLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log.Fatalf("FATAL: falha ao inicializar logger: %v", err)
	}
	defer logger.Sync()

	decimal.MarshalJSONWithoutQuotes = true
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Serviços ---
	statementService := statement.NewService(logger.Named("statement"))
	marketService := market.NewService(marketConfig(cfg), logger.Named("market"))

	analyzer, err := diagnosis.NewClaudeAnalyzer(diagnosis.ClaudeConfig{
		APIKey:     cfg.Claude.APIKey,
		Model:      cfg.Claude.Model,
		MaxTokens:  cfg.Claude.MaxTokens,
		Timeout:    cfg.Claude.Timeout.Duration,
		MaxRetries: cfg.Claude.MaxRetries,
	}, logger.Named("claude"))
	if err != nil {
		logger.Warn("Claude não configurado, geração de diagnóstico indisponível", zap.Error(err))
	}

	transcriber, err := diagnosis.NewGeminiTranscriber(ctx, diagnosis.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout.Duration,
	}, logger.Named("gemini"))
	if err != nil {
		logger.Warn("Gemini não configurado, transcrição de áudio indisponível", zap.Error(err))
	}

	diagnosisService := diagnosis.NewService(statementService, marketService, analyzer, transcriber, logger.Named("diagnosis"))

	var authService auth.Service
	var authHandler *handlers.AuthHandler
	if cfg.Auth.Enabled {
		authService = auth.NewService(authUsers(cfg), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL.Duration)
		authHandler = handlers.NewAuthHandler(authService)
	}

	warmer := market.NewWarmer(marketService, cfg.Market.WarmSchedule, logger.Named("warmer"))
	if err := warmer.Start(); err != nil {
		logger.Fatal("Falha ao agendar aquecimento do cache de mercado", zap.Error(err))
	}
	defer warmer.Stop()

	// --- HTTP ---
	maxUpload := cfg.Server.MaxUploadBytes()
	router := api.NewRouter(api.Handlers{
		Auth:       authHandler,
		Statements: handlers.NewStatementHandler(statementService, maxUpload),
		Market:     handlers.NewMarketHandler(marketService),
		Diagnosis:  handlers.NewDiagnosisHandler(diagnosisService, maxUpload),
	}, authService, maxUpload, logger.Named("http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	go func() {
		logger.Info("Diagnosis Service iniciado", zap.Int("port", cfg.Server.Port), zap.Bool("auth", cfg.Auth.Enabled), zap.Bool("anbima", cfg.Anbima.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Falha ao iniciar o servidor de diagnóstico", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Falha ao encerrar o servidor", zap.Error(err))
	}
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func marketConfig(cfg *config.Config) market.Config {
	mc := market.Config{
		BCBBaseURL:     cfg.Market.BCBBaseURL,
		BrapiBaseURL:   cfg.Market.BrapiBaseURL,
		BrapiToken:     cfg.Market.BrapiToken,
		RequestTimeout: cfg.Market.RequestTimeout.Duration,
		RateLimit:      cfg.Market.RateLimit,
		RateTTL:        cfg.Market.RateTTL.Duration,
		EquityTTL:      cfg.Market.EquityTTL.Duration,
		AnbimaTTL:      cfg.Market.AnbimaTTL.Duration,
	}
	if cfg.Anbima.Enabled {
		mc.Anbima = &market.AnbimaConfig{
			ClientID:     cfg.Anbima.ClientID,
			ClientSecret: cfg.Anbima.ClientSecret,
			TokenURL:     cfg.Anbima.TokenURL,
			BaseURL:      cfg.Anbima.BaseURL,
		}
	}
	return mc
}

func authUsers(cfg *config.Config) []auth.User {
	users := make([]auth.User, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users = append(users, auth.User{Username: u.Username, PasswordHash: u.PasswordHash, Roles: u.Roles})
	}
	return users
}
