package memory

import (
	"database/sql"
	"time"

	"github.com/araddon/dateparse"
)

// scanTimestamp accepts whatever shape modernc.org/sqlite hands back for a
// TIMESTAMP column — it has TEXT affinity under the hood, so depending on
// how a row was written (this store's own Exec calls use time.Time, but
// rows imported from an older dump or written by a different tool may not)
// the driver can surface either a time.Time or a raw string. dateparse
// covers the formats a naive exporter is likely to have produced.
func scanTimestamp(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if t, err := dateparse.ParseAny(v); err == nil {
			return t
		}
	case []byte:
		if t, err := dateparse.ParseAny(string(v)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// rawTimestamp is a sql.Scanner adapter so a single Scan call can accept
// either shape and normalize it through scanTimestamp.
type rawTimestamp struct {
	Time time.Time
}

func (r *rawTimestamp) Scan(value any) error {
	r.Time = scanTimestamp(value)
	return nil
}

var _ sql.Scanner = (*rawTimestamp)(nil)
