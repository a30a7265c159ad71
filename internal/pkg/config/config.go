package config

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/env"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
)

// Config is the bot configuration read from the environment
type Config struct {
	AppEnv   string `validate:"oneof=dev test prod"`
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=trace debug info warn error"`

	TestMode        bool
	AuthorizedUsers []string `validate:"dive,required"`
	AdminAPIKeyHash string
	WebhookSecret   string
	TelegramToken   string
	TelegramAPIURL  string `validate:"required,url"`
	TelegramBotID   int64  `validate:"gte=0"`
	SupportEmail    string `validate:"omitempty,email"`
	SupportTelegram string
	PaymentWebsite  string `validate:"omitempty,url"`

	Payment PaymentConfig
	Email   EmailConfig
}

// PaymentConfig configures the payment source and checks
type PaymentConfig struct {
	Type                string `validate:"oneof=csv s3 database"`
	CSVFile             string `validate:"required_if=Type csv"`
	S3Key               string `validate:"required_if=Type s3"`
	UseUserID           bool
	CheckOnJoin         bool
	CheckDuplicateEmail bool
	EmailColumn         string `validate:"required,alpha,max=2"`
	UserColumn          string `validate:"required,alpha,max=2"`
	ExpirationColumn    string `validate:"required,alpha,max=2"`
	DateFormat          string `validate:"required"`
	CacheEnabled        bool
	CacheTTLMinutes     int `validate:"gte=0"`
}

// EmailConfig configures payment reminder emails
type EmailConfig struct {
	Enabled bool
	Subject string `validate:"required_if=Enabled true"`
	Body    string `validate:"required_if=Enabled true"`
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:          env.GetEnv("APP_ENV", "prod"),
		Host:            env.GetEnv("APP_HOST", "localhost"),
		Port:            env.GetEnv("APP_PORT", "4000"),
		LogLevel:        strings.ToLower(env.GetEnv("LOG_LEVEL", "info")),
		TestMode:        env.GetEnvBool("APP_TEST_MODE", false),
		AuthorizedUsers: env.GetEnvList("AUTHORIZED_USERS"),
		AdminAPIKeyHash: env.GetEnv("ADMIN_API_KEY_HASH", ""),
		WebhookSecret:   env.GetEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramToken:   env.GetEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:  env.GetEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramBotID:   int64(env.GetEnvInt("TELEGRAM_BOT_ID", 0)),
		SupportEmail:    env.GetEnv("SUPPORT_EMAIL", ""),
		SupportTelegram: env.GetEnv("SUPPORT_TELEGRAM", ""),
		PaymentWebsite:  env.GetEnv("PAYMENT_WEBSITE", ""),
		Payment: PaymentConfig{
			Type:                strings.ToLower(env.GetEnv("PAYMENT_TYPE", payment.SourceCSV)),
			CSVFile:             env.GetEnv("PAYMENT_CSV_FILE", ""),
			S3Key:               env.GetEnv("PAYMENT_S3_KEY", ""),
			UseUserID:           env.GetEnvBool("PAYMENT_USE_USER_ID", false),
			CheckOnJoin:         env.GetEnvBool("PAYMENT_CHECK_ON_JOIN", true),
			CheckDuplicateEmail: env.GetEnvBool("PAYMENT_CHECK_DUP_EMAIL", true),
			EmailColumn:         strings.ToUpper(env.GetEnv("PAYMENT_EMAIL_COL", "A")),
			UserColumn:          strings.ToUpper(env.GetEnv("PAYMENT_USER_COL", "B")),
			ExpirationColumn:    strings.ToUpper(env.GetEnv("PAYMENT_EXPIRATION_COL", "C")),
			DateFormat:          env.GetEnv("PAYMENT_DATE_FORMAT", "2006-01-02"),
			CacheEnabled:        env.GetEnvBool("PAYMENT_CACHE_ENABLED", false),
			CacheTTLMinutes:     env.GetEnvInt("PAYMENT_CACHE_TTL_MINUTES", 60),
		},
		Email: EmailConfig{
			Enabled: env.GetEnvBool("EMAIL_ENABLED", false),
			Subject: env.GetEnv("EMAIL_SUBJECT", ""),
			Body:    env.GetEnv("EMAIL_BODY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IdentityMode returns how users are matched against payments
func (c *Config) IdentityMode() payment.IdentityMode {
	if c.Payment.UseUserID {
		return payment.ByUserID
	}
	return payment.ByUsername
}

// LoaderConfig returns the payment loader settings
func (c *Config) LoaderConfig() (payment.LoaderConfig, error) {
	cols, err := payment.ParseColumns(c.Payment.EmailColumn, c.Payment.UserColumn, c.Payment.ExpirationColumn)
	if err != nil {
		return payment.LoaderConfig{}, err
	}
	return payment.LoaderConfig{
		Type:    c.Payment.Type,
		CSVFile: c.Payment.CSVFile,
		S3Key:   c.Payment.S3Key,
		Columns: cols,
		Build: payment.BuildOptions{
			Mode:                c.IdentityMode(),
			DateFormat:          c.Payment.DateFormat,
			CheckDuplicateEmail: c.Payment.CheckDuplicateEmail,
		},
		CacheEnabled: c.Payment.CacheEnabled,
		CacheTTL:     time.Duration(c.Payment.CacheTTLMinutes) * time.Minute,
	}, nil
}

// FlagStore persists the runtime flags
type FlagStore interface {
	GetBool(ctx context.Context, key string) (bool, bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

const (
	flagTestMode    = "test_mode"
	flagCheckOnJoin = "check_on_join"
)

// Flags holds the settings that can be switched at runtime
type Flags struct {
	testMode    atomic.Bool
	checkOnJoin atomic.Bool
	store       FlagStore
}

// NewFlags creates the runtime flags from cfg
func NewFlags(cfg *Config) *Flags {
	f := &Flags{}
	f.testMode.Store(cfg.TestMode)
	f.checkOnJoin.Store(cfg.Payment.CheckOnJoin)
	return f
}

// Restore overrides the flags with the values stored in store and keeps
// store for later changes
func (f *Flags) Restore(ctx context.Context, store FlagStore) error {
	f.store = store
	if store == nil {
		return nil
	}
	for key, flag := range map[string]*atomic.Bool{flagTestMode: &f.testMode, flagCheckOnJoin: &f.checkOnJoin} {
		v, found, err := store.GetBool(ctx, key)
		if err != nil {
			return fmt.Errorf("restore %s: %w", key, err)
		}
		if found {
			flag.Store(v)
			log.Infof("[Settings] Restored %s: %t", key, v)
		}
	}
	return nil
}

// TestMode reports whether destructive actions are suppressed
func (f *Flags) TestMode() bool {
	return f.testMode.Load()
}

// SetTestMode switches test mode
func (f *Flags) SetTestMode(on bool) {
	f.testMode.Store(on)
	f.persist(flagTestMode, on)
}

// CheckOnJoin reports whether joined users are checked
func (f *Flags) CheckOnJoin() bool {
	return f.checkOnJoin.Load()
}

// SetCheckOnJoin switches the join check
func (f *Flags) SetCheckOnJoin(on bool) {
	f.checkOnJoin.Store(on)
	f.persist(flagCheckOnJoin, on)
}

func (f *Flags) persist(key string, value bool) {
	if f.store == nil {
		return
	}
	// the in-memory value stays authoritative when the store is down
	if err := f.store.SetBool(context.Background(), key, value); err != nil {
		log.Errorf("[Settings] Unable to persist %s: %v", key, err)
	}
}
