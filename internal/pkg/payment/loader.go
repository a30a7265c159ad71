package payment

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// Loader provides payment ledgers from an external source
type Loader interface {
	LoadAll(ctx context.Context) (*Ledger, error)
	// LoadSingleByIdentity returns nil when the identity has no payment
	LoadSingleByIdentity(ctx context.Context, id Identity) (*Record, error)
	CheckForErrors(ctx context.Context) ([]ComplianceError, error)
}

// RowSource reads the raw rows of a payment sheet, header excluded
type RowSource interface {
	Name() string
	Rows(ctx context.Context) ([]Row, error)
}

// SheetLoader builds ledgers from any RowSource
type SheetLoader struct {
	source RowSource
	opts   BuildOptions
}

// NewSheetLoader creates a loader reading rows from source
func NewSheetLoader(source RowSource, opts BuildOptions) *SheetLoader {
	return &SheetLoader{source: source, opts: opts}
}

// LoadAll reads and builds the whole ledger
func (l *SheetLoader) LoadAll(ctx context.Context) (*Ledger, error) {
	ledger, _, err := l.loadAndCheck(ctx)
	return ledger, err
}

// LoadSingleByIdentity loads the whole ledger and looks up id
func (l *SheetLoader) LoadSingleByIdentity(ctx context.Context, id Identity) (*Record, error) {
	ledger, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if r, ok := ledger.Get(id); ok {
		return &r, nil
	}
	return nil, nil
}

// CheckForErrors returns the row problems of the current sheet
func (l *SheetLoader) CheckForErrors(ctx context.Context) ([]ComplianceError, error) {
	_, errs, err := l.loadAndCheck(ctx)
	return errs, err
}

func (l *SheetLoader) loadAndCheck(ctx context.Context) (*Ledger, []ComplianceError, error) {
	name := l.source.Name()
	log.Infof("[PaymentLedger] Loading %s...", name)

	rows, err := l.source.Rows(ctx)
	if err != nil {
		log.Errorf("[PaymentLedger] An error occurred while loading %s: %v", name, err)
		return nil, nil, &LoaderError{Source: name, Err: err}
	}

	ledger, errs := Build(rows, l.opts)
	log.Infof("[PaymentLedger] %s successfully loaded, number of rows: %d", name, ledger.Count())

	return ledger, errs, nil
}
