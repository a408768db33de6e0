// Package dal stores schedule registrations for the scheduler service.
package dal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/alecthomas/types/optional"
	"github.com/benbjohnson/clock"

	"github.com/DarumaDocker/schedule-flows/internal/model"
	"github.com/DarumaDocker/schedule-flows/internal/observability"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no registration matches.
var ErrNotFound = errors.New("not found")

// Registration is a stored schedule. A flow has at most one.
type Registration struct {
	ScheduleID model.ScheduleKey
	Key        model.EventKey
	FlowsUser  string
	FlowID     string
	Cron       string
	HandlerFn  optional.Option[string]
	Body       []byte
	CreatedAt  time.Time
}

// Binding is the JSON shape returned for an event lookup.
type Binding struct {
	FlowID     string            `json:"flow_id"`
	FlowsUser  string            `json:"flows_user"`
	ScheduleID model.ScheduleKey `json:"schedule_id"`
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DAL struct {
	conn  *sql.DB
	db    DBTX
	clock clock.Clock
}

// Open an instrumented SQLite database at dsn and apply the schema.
func Open(ctx context.Context, dsn string, clock clock.Clock) (*DAL, error) {
	conn, err := observability.OpenDBAndInstrument(dsn)
	if err != nil {
		return nil, err
	}
	return New(ctx, conn, clock)
}

// New applies the schema to conn.
func New(ctx context.Context, conn *sql.DB, clock clock.Clock) (*DAL, error) {
	// An in-memory database exists per connection.
	conn.SetMaxOpenConns(1)
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &DAL{conn: conn, db: conn, clock: clock}, nil
}

func (d *DAL) Close() error {
	return d.conn.Close()
}

type Tx struct {
	*DAL
	tx *sql.Tx
}

func (d *DAL) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{DAL: &DAL{conn: d.conn, db: tx, clock: d.clock}, tx: tx}, nil
}

// CommitOrRollback can be used in a defer statement to commit or rollback a
// transaction depending on whether the enclosing function returned an error.
func (t *Tx) CommitOrRollback(err *error) {
	if *err != nil {
		if rerr := t.tx.Rollback(); rerr != nil {
			*err = errors.Join(*err, fmt.Errorf("rolling back transaction: %w", rerr))
		}
		return
	}
	if cerr := t.tx.Commit(); cerr != nil {
		*err = fmt.Errorf("committing transaction: %w", cerr)
	}
}

// ReplaceRegistration stores a new registration for reg.FlowID, removing any
// previous one. The previous registration, if any, is returned.
//
// If apply is not nil it is called before the transaction commits, and an
// error from it leaves the store unchanged.
func (d *DAL) ReplaceRegistration(ctx context.Context, reg Registration, apply func(previous optional.Option[Registration]) error) (previous optional.Option[Registration], err error) {
	tx, err := d.Begin(ctx)
	if err != nil {
		return optional.None[Registration](), err
	}
	defer tx.CommitOrRollback(&err)
	previous, err = tx.replace(ctx, reg)
	if err != nil {
		return optional.None[Registration](), err
	}
	if apply != nil {
		if err = apply(previous); err != nil {
			return optional.None[Registration](), err
		}
	}
	return previous, nil
}

func (d *DAL) replace(ctx context.Context, reg Registration) (optional.Option[Registration], error) {
	previous := optional.None[Registration]()
	existing, err := d.GetRegistration(ctx, reg.FlowID)
	switch {
	case err == nil:
		previous = optional.Some(existing)
		if _, err := d.db.ExecContext(ctx, `DELETE FROM schedules WHERE flow_id = $1`, reg.FlowID); err != nil {
			return previous, fmt.Errorf("failed to delete schedule for %s: %w", reg.FlowID, err)
		}
	case !errors.Is(err, ErrNotFound):
		return previous, err
	}

	if reg.Body == nil {
		reg.Body = []byte{}
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = d.clock.Now().UTC()
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO schedules (schedule_id, event_key, flows_user, flow_id, cron, handler_fn, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, reg.ScheduleID, reg.Key, reg.FlowsUser, reg.FlowID, reg.Cron, reg.HandlerFn.Ptr(), reg.Body, reg.CreatedAt)
	if err != nil {
		return previous, fmt.Errorf("failed to insert schedule for %s: %w", reg.FlowID, err)
	}
	return previous, nil
}

const selectRegistration = `
	SELECT schedule_id, event_key, flows_user, flow_id, cron, handler_fn, body, created_at
	FROM schedules
	`

// GetRegistration returns the registration for a flow.
func (d *DAL) GetRegistration(ctx context.Context, flowID string) (Registration, error) {
	row := d.db.QueryRowContext(ctx, selectRegistration+`WHERE flow_id = $1`, flowID)
	reg, err := scanRegistration(row)
	if err != nil {
		return Registration{}, fmt.Errorf("registration for %s: %w", flowID, err)
	}
	return reg, nil
}

// GetBindings returns the flows bound to an event key.
func (d *DAL) GetBindings(ctx context.Context, key model.EventKey) ([]Binding, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT flow_id, flows_user, schedule_id
		FROM schedules
		WHERE event_key = $1
		ORDER BY flow_id
		`, key)
	if err != nil {
		return nil, fmt.Errorf("bindings for event %s: %w", key, err)
	}
	defer rows.Close() //nolint:errcheck
	var out []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.FlowID, &b.FlowsUser, &b.ScheduleID); err != nil {
			return nil, fmt.Errorf("bindings for event %s: %w", key, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bindings for event %s: %w", key, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bindings for event %s: %w", key, ErrNotFound)
	}
	return out, nil
}

// ListRegistrations returns every stored registration.
func (d *DAL) ListRegistrations(ctx context.Context) ([]Registration, error) {
	rows, err := d.db.QueryContext(ctx, selectRegistration+`ORDER BY created_at, flow_id`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	var out []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (Registration, error) {
	var reg Registration
	var handlerFn sql.NullString
	err := row.Scan(&reg.ScheduleID, &reg.Key, &reg.FlowsUser, &reg.FlowID, &reg.Cron, &handlerFn, &reg.Body, &reg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Registration{}, ErrNotFound
	} else if err != nil {
		return Registration{}, err
	}
	if handlerFn.Valid {
		reg.HandlerFn = optional.Some(handlerFn.String)
	}
	reg.CreatedAt = reg.CreatedAt.UTC()
	return reg, nil
}
