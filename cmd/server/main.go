package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/service"
	"github.com/garyjia/quickquote/internal/config"
	"github.com/garyjia/quickquote/internal/infrastructure/external/oauth"
	"github.com/garyjia/quickquote/internal/infrastructure/external/openai"
	"github.com/garyjia/quickquote/internal/infrastructure/external/payment"
	"github.com/garyjia/quickquote/internal/infrastructure/persistence/repository"
	"github.com/garyjia/quickquote/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/quickquote/internal/infrastructure/storage"
	httpserver "github.com/garyjia/quickquote/internal/interfaces/http"
	"github.com/garyjia/quickquote/internal/invoice"
	"github.com/garyjia/quickquote/internal/report"
	"github.com/garyjia/quickquote/migrations"
	"github.com/garyjia/quickquote/pkg/database"
	"github.com/garyjia/quickquote/pkg/utils"
)

func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("QUICKQUOTE_CONFIG"); p != "" {
		configPath = p
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting QuickQuote",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Repositories
	txManager := sqlite.NewDB(db.DB, logger)
	accounts := repository.NewAccountRepository(db.DB, logger)
	generations := repository.NewGenerationRepository(db.DB, logger)
	paymentEvents := repository.NewPaymentEventRepository(db.DB, logger)

	documents := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)

	// Language model clients
	prompts := openai.DefaultPrompts()
	if cfg.LLM.PromptsPath != "" {
		prompts, err = openai.LoadPrompts(cfg.LLM.PromptsPath)
		if err != nil {
			return fmt.Errorf("failed to load prompts: %w", err)
		}
	}
	llmClient := openai.NewClient(openai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	})
	extractor := openai.NewExtractor(llmClient, cfg.LLM.Model, prompts, logger)
	transcriber := openai.NewTranscriber(llmClient, cfg.LLM.TranscriptionModel, prompts, logger)

	renderer := invoice.NewRenderer(invoice.WithTheme(invoice.Theme{
		Banner:        rgb(cfg.Invoice.BannerColor),
		HeaderFill:    rgb(cfg.Invoice.HeaderFillColor),
		ClientLabel:   cfg.Invoice.ClientLabel,
		ThankYouNote:  cfg.Invoice.ThankYouNote,
		ChecksPayable: cfg.Invoice.ChecksPayable,
	}))

	// Application services
	kvLogger := utils.NewKVLogger(logger)
	policy := service.CreditPolicy{
		SignupCredits:       cfg.Payments.SignupCredits,
		TopUpCredits:        cfg.Payments.TopUpCredits,
		TopUpPlan:           cfg.Payments.TopUpPlan,
		LowBalanceThreshold: cfg.Payments.LowBalanceThreshold,
		PaymentLink:         cfg.Payments.PaymentLink,
	}

	services := httpserver.Services{
		Credits: service.NewCreditService(accounts, paymentEvents, txManager, policy, kvLogger),
		Generations: service.NewGenerationService(service.GenerationDeps{
			Accounts:    accounts,
			Generations: generations,
			TxManager:   txManager,
			Storage:     documents,
			Extractor:   extractor,
			Renderer:    renderer,
			History:     report.NewHistoryExporter(logger),
			PreviewDPI:  cfg.Invoice.PreviewDPI,
		}, policy, kvLogger),
		Transcriptions: service.NewTranscriptionService(transcriber, cfg.Server.MaxUploadBytes, kvLogger),
		Identity: oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Auth.RedirectURL,
		}, logger),
		Payments: payment.NewStripeWebhook(cfg.Payments.WebhookSecret, cfg.Payments.WebhookTolerance, logger),
	}

	sessions, err := httpserver.NewSessionIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	serverCfg := httpserver.DefaultServerConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	serverCfg.CookieSecure = cfg.Server.CookieSecure
	serverCfg.PostLoginRedirect = cfg.Server.PostLoginRedirect
	serverCfg.MaxUploadBytes = cfg.Server.MaxUploadBytes

	server := httpserver.NewServer(serverCfg, services, sessions, kvLogger)

	// Wait for interrupt signal to gracefully shutdown the server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func rgb(c []int) invoice.Color {
	if len(c) != 3 {
		return invoice.Color{}
	}
	return invoice.Color{R: c[0], G: c[1], B: c[2]}
}
