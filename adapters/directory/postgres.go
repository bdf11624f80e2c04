package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jonasXchen/magicblock-hacker-house/adapters/directory/migrations"
	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// DBTX is the subset of database/sql used by the directory.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresDirectory stores profiles in a PostgreSQL table scoped by collection
type PostgresDirectory struct {
	db         DBTX
	collection string
}

// NewPostgresDirectory creates a directory over db for the given collection
func NewPostgresDirectory(db DBTX, collection string) ports.Directory {
	return &PostgresDirectory{db: db, collection: collection}
}

// OpenPostgres opens a pgx-backed connection pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded profile schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (r *PostgresDirectory) FindByWallet(ctx context.Context, walletIdentity string) (*core.Profile, error) {
	query :=
		`SELECT id, wallet_identity, name, email, project, description, social_handle, code_hosting_handle, created_at
		 FROM profiles
		 WHERE collection = $1 AND wallet_identity = $2
		 ORDER BY created_at DESC
		 LIMIT 1`

	p := &core.Profile{}
	err := r.db.QueryRowContext(ctx, query, r.collection, walletIdentity).Scan(
		&p.ID, &p.WalletIdentity, &p.Name, &p.Email, &p.Project,
		&p.Description, &p.SocialHandle, &p.CodeHostingHandle, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: db error: %w", core.ErrUpstream, err)
	}
	return p, nil
}

func (r *PostgresDirectory) Create(ctx context.Context, walletIdentity string, f core.ProfileFields) (string, error) {
	query :=
		`INSERT INTO profiles (collection, wallet_identity, name, email, project, description, social_handle, code_hosting_handle)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		r.collection, walletIdentity, f.Name, f.Email, f.Project,
		f.Description, f.SocialHandle, f.CodeHostingHandle,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: db error: %w", core.ErrUpstream, err)
	}
	return id, nil
}

func (r *PostgresDirectory) Update(ctx context.Context, recordID string, f core.ProfileFields) error {
	query :=
		`UPDATE profiles
		 SET name = $1, email = $2, project = $3, description = $4,
		     social_handle = $5, code_hosting_handle = $6, updated_at = now()
		 WHERE id = $7 AND collection = $8`

	res, err := r.db.ExecContext(ctx, query,
		f.Name, f.Email, f.Project, f.Description, f.SocialHandle, f.CodeHostingHandle,
		recordID, r.collection,
	)
	if err != nil {
		return fmt.Errorf("%w: db error: %w", core.ErrUpstream, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db error: %w", core.ErrUpstream, err)
	}
	if n == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}
