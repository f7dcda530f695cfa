package pgstore

import (
	"context"
	"embed"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/delivery"
)

// Migrations holds the goose migrations for every table used by the store.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations passed to goose.
const MigrationsDir = "migrations"

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SecretSealer encrypts subscription signing secrets at rest.
type SecretSealer interface {
	Seal(tenantID uuid.UUID, plaintext string) (string, error)
	Open(tenantID uuid.UUID, sealed string) (string, error)
}

// Store implements delivery.Store and balance.Store on PostgreSQL.
type Store struct {
	db     DBTX
	sealer SecretSealer
}

var (
	_ delivery.Store = (*Store)(nil)
	_ balance.Store  = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithSealer encrypts signing secrets before they are written. Rows written
// without a sealer stay readable.
func WithSealer(s SecretSealer) Option {
	return func(st *Store) {
		st.sealer = s
	}
}

// New creates a store on top of db.
func New(db DBTX, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jsonText returns raw as text for a json column. Empty input is stored as null.
func jsonText(raw []byte) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = "\n  " + alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
