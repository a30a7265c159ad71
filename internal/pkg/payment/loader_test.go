package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	rows  []Row
	err   error
	reads int
}

func (s *staticSource) Name() string {
	return "static"
}

func (s *staticSource) Rows(_ context.Context) ([]Row, error) {
	s.reads++
	return s.rows, s.err
}

func TestSheetLoader(t *testing.T) {
	src := &staticSource{rows: []Row{
		{Identity: "alice", Expiration: "2024-01-10"},
		{Identity: "bob", Expiration: "2024-01-10"},
		{Identity: "bob", Expiration: "2024-01-20"},
	}}
	loader := NewSheetLoader(src, BuildOptions{Now: fixedNow(2024, 1, 8)})
	ctx := context.Background()

	ledger, err := loader.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Count())

	r, err := loader.LoadSingleByIdentity(ctx, Identity{Username: "BOB"})
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 10, r.ExpirationDate.Day())

	r, err = loader.LoadSingleByIdentity(ctx, Identity{Username: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, r)

	errs, err := loader.CheckForErrors(ctx)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Row)
}

func TestSheetLoaderSourceError(t *testing.T) {
	cause := errors.New("permission denied")
	loader := NewSheetLoader(&staticSource{err: cause}, BuildOptions{})

	_, err := loader.LoadAll(context.Background())
	require.Error(t, err)

	var loaderErr *LoaderError
	require.ErrorAs(t, err, &loaderErr)
	assert.Equal(t, "static", loaderErr.Source)
	assert.ErrorIs(t, err, cause)

	_, err = loader.CheckForErrors(context.Background())
	assert.ErrorAs(t, err, &loaderErr)
}

func TestLedgerCache(t *testing.T) {
	src := &staticSource{rows: []Row{{Identity: "alice", Expiration: "2024-01-10"}}}
	cache := NewLedgerCache(NewSheetLoader(src, BuildOptions{}))
	ctx := context.Background()

	first, err := cache.Ledger(ctx)
	require.NoError(t, err)
	second, err := cache.Ledger(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.reads)

	_, err = cache.Single(ctx, Identity{Username: "alice"})
	require.NoError(t, err)
	_, err = cache.Single(ctx, Identity{Username: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.reads)

	cache.Invalidate()
	_, err = cache.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.reads)
}

func TestLedgerCacheDoesNotKeepFailures(t *testing.T) {
	src := &staticSource{err: errors.New("offline")}
	cache := NewLedgerCache(NewSheetLoader(src, BuildOptions{}))
	ctx := context.Background()

	_, err := cache.Ledger(ctx)
	require.Error(t, err)

	src.err = nil
	src.rows = []Row{{Identity: "alice", Expiration: "2024-01-10"}}
	ledger, err := cache.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Count())
}

func TestNewLoader(t *testing.T) {
	cols := Columns{Email: 0, User: 1, Expiration: 2}

	_, err := NewLoader(LoaderConfig{Type: SourceCSV}, LoaderDeps{})
	assert.Error(t, err)

	loader, err := NewLoader(LoaderConfig{Type: SourceCSV, CSVFile: "payments.csv", Columns: cols}, LoaderDeps{})
	require.NoError(t, err)
	assert.IsType(t, &SheetLoader{}, loader)

	_, err = NewLoader(LoaderConfig{Type: SourceS3, S3Key: "payments.csv"}, LoaderDeps{})
	assert.Error(t, err)
	_, err = NewLoader(LoaderConfig{Type: SourceS3, S3Key: "payments.csv"}, LoaderDeps{Objects: &memObjects{}})
	assert.NoError(t, err)

	_, err = NewLoader(LoaderConfig{Type: SourceDatabase}, LoaderDeps{})
	assert.Error(t, err)
	_, err = NewLoader(LoaderConfig{Type: SourceDatabase}, LoaderDeps{Payments: &memPayments{}})
	assert.NoError(t, err)

	_, err = NewLoader(LoaderConfig{Type: "gsheet"}, LoaderDeps{})
	assert.Error(t, err)

	// no redis client, no snapshot
	loader, err = NewLoader(LoaderConfig{Type: SourceDatabase, CacheEnabled: true}, LoaderDeps{Payments: &memPayments{}})
	require.NoError(t, err)
	assert.IsType(t, &SheetLoader{}, loader)
}
