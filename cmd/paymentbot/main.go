package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ManuelReschke/PaymentBot/app/controllers"
	"github.com/ManuelReschke/PaymentBot/app/repository"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/audit"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/cache"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/config"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/database"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/env"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/joingate"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/mail"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/metrics"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/notify"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/router"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/s3store"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/telegram"
)

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(logLevel(cfg.LogLevel))

	app, bot, err := NewApplication(cfg)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Main] Shutting down...")
	bot.scheduler.Shutdown()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Main] Error during server shutdown: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Errorf("[Main] Error closing redis: %v", err)
	}
}

// Bot holds the long running parts of the application
type Bot struct {
	scheduler *audit.Scheduler
}

// NewApplication wires storage, chat transport and payment checks into the fiber app
func NewApplication(cfg *config.Config) (*fiber.App, *Bot, error) {
	if err := database.SetupDatabase(); err != nil {
		return nil, nil, err
	}
	cache.SetupCache()

	repos := repository.NewFactory(database.GetDB()).GetRepositories()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	loader, err := newLoader(cfg, repos)
	if err != nil {
		return nil, nil, err
	}

	flags := config.NewFlags(cfg)
	if err := flags.Restore(context.Background(), repos.Setting); err != nil {
		log.Warnf("[Settings] Unable to restore runtime settings, using configuration: %v", err)
	}
	client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL)
	botID := resolveBotID(cfg, client)
	roster := telegram.NewRoster(repos.ChatMember, botID).WithLookup(client)
	notifier := notify.NewAuthorizedUsersSender(roster, client, cfg.AuthorizedUsers)
	recorder := audit.NewRecorder(repos.KickRecord)

	// every pass gets a fresh ledger and the current test mode
	kickers := func() *member.Kicker {
		evaluator := member.NewEvaluator(roster, payment.NewLedgerCache(loader), cfg.IdentityMode())
		return member.NewKicker(evaluator, client, flags.TestMode())
	}

	job := audit.NewJob(kickers, notifier, recorder, m)
	scheduler := audit.NewScheduler(job, flags.TestMode)

	var emailers controllers.EmailerFactory
	if cfg.Email.Enabled {
		mailer := mail.NewSMTPMailer(mail.LoadSMTPConfig())
		template := mail.Template{Subject: cfg.Email.Subject, Body: cfg.Email.Body}
		emailers = func() *mail.PaymentEmailer {
			return mail.NewPaymentEmailer(kickers().Evaluator(), mailer, template, flags.TestMode(), m)
		}
	}

	gates := func() *joingate.Gate {
		return joingate.New(kickers(), notifier, recorder, m)
	}

	botController := controllers.NewBotController(controllers.BotControllerDeps{
		Scheduler: scheduler,
		Kickers:   kickers,
		Emailers:  emailers,
		Loader:    loader,
		Flags:     flags,
		Sender:    client,
		Contacts: notify.Contacts{
			SupportEmail:    cfg.SupportEmail,
			SupportTelegram: cfg.SupportTelegram,
			PaymentWebsite:  cfg.PaymentWebsite,
		},
		Recorder: recorder,
		Metrics:  m,
	})
	invalidator, _ := loader.(controllers.LedgerInvalidator)
	recordsController := controllers.NewRecordsController(repos.KickRecord, repos.Payment, invalidator, cfg.Payment.Type == payment.SourceDatabase)
	webhookController := controllers.NewWebhookController(roster, gates, flags, scheduler, botID)

	app := fiber.New(fiber.Config{
		AppName: "PaymentBot",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app,
		router.NewSystemRouter(registry),
		router.NewWebhookRouter(webhookController, cfg.WebhookSecret),
		router.NewApiRouter(botController, recordsController, cfg.AdminAPIKeyHash, router.NewLimiterStorage()),
	)

	return app, &Bot{scheduler: scheduler}, nil
}

func newLoader(cfg *config.Config, repos *repository.Repositories) (payment.Loader, error) {
	loaderCfg, err := cfg.LoaderConfig()
	if err != nil {
		return nil, err
	}

	deps := payment.LoaderDeps{
		Payments: repos.Payment,
		Redis:    cache.GetClient(),
	}
	if loaderCfg.Type == payment.SourceS3 {
		s3Cfg, err := s3store.LoadConfig()
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		objects, err := s3store.NewClient(ctx, s3Cfg)
		if err != nil {
			return nil, err
		}
		if err := objects.HeadObject(ctx, loaderCfg.S3Key); err != nil {
			log.Warnf("[PaymentLedger] %v", err)
		}
		deps.Objects = objects
	}
	return payment.NewLoader(loaderCfg, deps)
}

// resolveBotID returns TELEGRAM_BOT_ID, or asks the platform for the bot account when unset
func resolveBotID(cfg *config.Config, client *telegram.Client) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := client.ResolveBotID(ctx, cfg.TelegramBotID)
	if err != nil {
		log.Warnf("[Main] Unable to resolve bot account, the bot is not excluded from checks: %v", err)
		return 0
	}
	log.Infof("[Main] Running as bot %d", id)
	return id
}

func findOpenAPISpec() string {
	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/paymentbot to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path + "public/docs/v1/openapi.yml"
		}
	}
	log.Warn("[Main] OpenAPI document not found, /docs/api disabled")
	return ""
}

func logLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	}
	return log.LevelInfo
}
