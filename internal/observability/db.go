//go:build !wasip1

package observability

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite" // SQLite driver
)

// OpenDBAndInstrument opens a SQLite database with tracing and connection
// pool metrics.
func OpenDBAndInstrument(dsn string) (*sql.DB, error) {
	conn, err := otelsql.Open("sqlite", dsn, otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = otelsql.RegisterDBStatsMetrics(conn, otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return nil, fmt.Errorf("failed to register database metrics: %w", err)
	}

	return conn, nil
}
