package payment

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Source types
const (
	SourceCSV      = "csv"
	SourceS3       = "s3"
	SourceDatabase = "database"
)

// LoaderConfig selects and configures the payment source
type LoaderConfig struct {
	Type         string
	CSVFile      string
	S3Key        string
	Columns      Columns
	Build        BuildOptions
	CacheEnabled bool
	CacheTTL     time.Duration
}

// LoaderDeps carries the clients a source may need
type LoaderDeps struct {
	Objects  ObjectReader
	Payments PaymentLister
	Redis    *redis.Client
}

// NewLoader creates the loader for cfg.Type, wrapped by the redis snapshot when enabled
func NewLoader(cfg LoaderConfig, deps LoaderDeps) (Loader, error) {
	var source RowSource
	switch cfg.Type {
	case SourceCSV:
		if cfg.CSVFile == "" {
			return nil, fmt.Errorf("payment csv file not configured")
		}
		source = NewCSVSource(cfg.CSVFile, cfg.Columns)
	case SourceS3:
		if deps.Objects == nil {
			return nil, fmt.Errorf("payment source %q requires an S3 client", cfg.Type)
		}
		source = NewS3Source(deps.Objects, cfg.S3Key, cfg.Columns)
	case SourceDatabase:
		if deps.Payments == nil {
			return nil, fmt.Errorf("payment source %q requires a payment repository", cfg.Type)
		}
		source = NewDatabaseSource(deps.Payments)
	default:
		return nil, fmt.Errorf("invalid payment type %q", cfg.Type)
	}

	var loader Loader = NewSheetLoader(source, cfg.Build)
	if cfg.CacheEnabled && deps.Redis != nil {
		log.Infof("[PaymentLedger] Using redis snapshot for %s (ttl: %s)", source.Name(), cfg.CacheTTL)
		loader = NewCachedLoader(loader, deps.Redis, cfg.CacheTTL)
	}
	return loader, nil
}
