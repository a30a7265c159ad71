package payment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// firstDataRow is the sheet row of the first data row, the header being row 1
const firstDataRow = 2

var errInvalidDate = errors.New("invalid expiration date")

// Row is a raw payment row as read from a source, header excluded.
// Expiration may be a time.Time, a spreadsheet serial number or a string.
type Row struct {
	Identity   string
	Email      string
	Expiration any
	// Line is the sheet row number, zero means the row position is used
	Line int
}

// BuildOptions controls how rows are turned into a ledger
type BuildOptions struct {
	Mode                IdentityMode
	DateFormat          string
	CheckDuplicateEmail bool
	Now                 func() time.Time
}

// Build creates a ledger from rows. Row problems are returned as compliance errors
// and the offending rows are skipped; rows with an empty identity are ignored.
func Build(rows []Row, opts BuildOptions) (*Ledger, []ComplianceError) {
	ledger := NewLedger(opts.CheckDuplicateEmail, opts.Now)
	var errs []ComplianceError

	for i, row := range rows {
		rowIdx := i + firstDataRow
		if row.Line > 0 {
			rowIdx = row.Line
		}
		id := ParseIdentity(opts.Mode, row.Identity)
		if !id.IsValid() {
			continue
		}

		expiration, err := ParseExpiration(row.Expiration, opts.DateFormat)
		if err != nil {
			log.Warnf("[PaymentLedger] Expiration date for user %s at row %d is not valid (%v), skipped", id, rowIdx, row.Expiration)
			errs = append(errs, ComplianceError{
				Kind:          InvalidDate,
				Row:           rowIdx,
				Identity:      id.String(),
				RawExpiration: rawString(row.Expiration),
			})
			continue
		}

		record := Record{
			Identity:       id,
			Email:          strings.TrimSpace(row.Email),
			ExpirationDate: expiration,
		}
		if !ledger.add(record) {
			log.Warnf("[PaymentLedger] Row %d contains duplicated data, skipped", rowIdx)
			errs = append(errs, ComplianceError{
				Kind:     DuplicateIdentity,
				Row:      rowIdx,
				Identity: id.String(),
			})
			continue
		}
		log.Debugf("[PaymentLedger] %4d - Row %4d | %s | %s | %s", ledger.Count(), rowIdx, record.Email, id, expiration.Format(dateLayout))
	}

	return ledger, errs
}

// ParseExpiration parses a date cell: native time values first, then spreadsheet
// serial numbers, then the configured layout
func ParseExpiration(v any, layout string) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, errInvalidDate
		}
		return Date(val), nil
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, errInvalidDate
		}
		return Date(*val), nil
	case float64:
		return fromSerial(val)
	case float32:
		return fromSerial(float64(val))
	case int:
		return fromSerial(float64(val))
	case int64:
		return fromSerial(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, errInvalidDate
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if t, err := fromSerial(f); err == nil {
				return t, nil
			}
		}
		if layout == "" {
			layout = dateLayout
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", errInvalidDate, err)
		}
		return Date(t), nil
	}
	return time.Time{}, errInvalidDate
}

// fromSerial converts a spreadsheet date serial (1900 date system) into a date
func fromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > 2958465 {
		return time.Time{}, errInvalidDate
	}
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	// serials before 1900-03-01 predate the phantom 1900-02-29
	if serial < 60 {
		epoch = epoch.AddDate(0, 0, 1)
	}
	return epoch.AddDate(0, 0, int(math.Floor(serial))), nil
}

func rawString(v any) string {
	if v == nil {
		return ""
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(dateLayout)
	}
	return fmt.Sprint(v)
}

// ColumnIndex converts a column letter such as "A" or "AB" into a zero based index
func ColumnIndex(col string) (int, error) {
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return 0, fmt.Errorf("empty column")
	}
	idx := 0
	for _, c := range col {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column %q", col)
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1, nil
}
