package helpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// CountRows returns the number of rows in table matching where (may be
// empty). Placeholders in where are written %s.
func CountRows(t *testing.T, h *dbunified.Handle, table, where string, params ...any) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	statement := "SELECT count(*) FROM " + table
	if where != "" {
		statement += " WHERE " + where
	}
	result, err := h.Run(ctx, statement, params, dbunified.Fetch(dbunified.QuantitySingle))
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return toInt64(t, result)
}

// AssertRowCount checks that table holds exactly want rows
func AssertRowCount(t *testing.T, h *dbunified.Handle, table string, want int64) {
	t.Helper()
	if got := CountRows(t, h, table, ""); got != want {
		t.Errorf("expected %d rows in %s, got %d", want, table, got)
	}
}

// AssertRecordExists checks that a row with column = value exists
func AssertRecordExists(t *testing.T, h *dbunified.Handle, table, column string, value any) {
	t.Helper()
	if CountRows(t, h, table, column+" = %s", value) == 0 {
		t.Errorf("expected %s with %s=%v to exist, but it doesn't", table, column, value)
	}
}

// AssertRecordNotExists checks that no row with column = value exists
func AssertRecordNotExists(t *testing.T, h *dbunified.Handle, table, column string, value any) {
	t.Helper()
	if n := CountRows(t, h, table, column+" = %s", value); n != 0 {
		t.Errorf("expected %s with %s=%v to not exist, but found %d", table, column, value, n)
	}
}

// toInt64 normalizes the integer types drivers return for count(*)
func toInt64(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		if _, err := fmt.Sscan(n, &out); err != nil {
			t.Fatalf("unexpected count %q: %v", n, err)
		}
		return out
	default:
		t.Fatalf("unexpected count type %T", v)
		return 0
	}
}
