package payment

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `email,user,expiration
alice@example.com,@alice,2024-01-10

bob@example.com,bob,45301
carl@example.com,carl
`

func TestReadCSVRows(t *testing.T) {
	cols, err := ParseColumns("A", "B", "C")
	require.NoError(t, err)

	rows, err := ReadCSVRows(strings.NewReader(sampleCSV), cols)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Identity: "@alice", Email: "alice@example.com", Expiration: "2024-01-10", Line: 2}, rows[0])
	// the blank line is skipped but still counted
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "45301", rows[1].Expiration)
	assert.Equal(t, "", rows[2].Expiration)

	ledger, errs := Build(rows, BuildOptions{DateFormat: "2006-01-02"})
	assert.Equal(t, 2, ledger.Count())
	require.Len(t, errs, 1)
	assert.Equal(t, 5, errs[0].Row)
}

func TestReadCSVRowsColumnOrder(t *testing.T) {
	cols, err := ParseColumns("c", "a", "B")
	require.NoError(t, err)

	rows, err := ReadCSVRows(strings.NewReader("user,expiration,email\nalice,2024-01-10,alice@example.com\n"), cols)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Identity)
	assert.Equal(t, "alice@example.com", rows[0].Email)
	assert.Equal(t, "2024-01-10", rows[0].Expiration)
}

func TestReadCSVRowsEmpty(t *testing.T) {
	rows, err := ReadCSVRows(strings.NewReader(""), Columns{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseColumnsInvalid(t *testing.T) {
	_, err := ParseColumns("A", "1", "C")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user column")
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	src := NewCSVSource(path, Columns{Email: 0, User: 1, Expiration: 2})
	assert.Contains(t, src.Name(), "payments.csv")

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), Columns{}).Rows(context.Background())
	assert.Error(t, err)
}

type memObjects struct {
	objects map[string]string
}

func (m *memObjects) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *memObjects) Bucket() string {
	return "payments"
}

func TestS3Source(t *testing.T) {
	objects := &memObjects{objects: map[string]string{"sheets/payments.csv": sampleCSV}}

	src := NewS3Source(objects, "sheets/payments.csv", Columns{Email: 0, User: 1, Expiration: 2})
	assert.Equal(t, `object "s3://payments/sheets/payments.csv"`, src.Name())

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = NewS3Source(objects, "missing.csv", Columns{}).Rows(context.Background())
	assert.Error(t, err)
}

type memPayments struct {
	payments []models.Payment
	err      error
}

func (m *memPayments) List(_ context.Context) ([]models.Payment, error) {
	return m.payments, m.err
}

func TestDatabaseSource(t *testing.T) {
	repo := &memPayments{payments: []models.Payment{
		{ID: 3, Identity: "alice", Email: "alice@example.com", ExpiresAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: 7, Identity: "alice", Email: "alice2@example.com", ExpiresAt: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
	}}

	rows, err := NewDatabaseSource(repo).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ledger, errs := Build(rows, BuildOptions{})
	assert.Equal(t, 1, ledger.Count())
	require.Len(t, errs, 1)
	assert.Equal(t, 7, errs[0].Row)
}
