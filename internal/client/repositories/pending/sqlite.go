package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements Repository on top of a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the
// embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return NewSQLiteRepository(db), nil
}

// RunMigrations brings the schema of db up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// NewSQLiteRepository wraps an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveAll replaces every row inside one transaction.
func (r *SQLiteRepository) SaveAll(ctx context.Context, records []models.PostRecord) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `delete from optimistic_posts`); err != nil {
			return fmt.Errorf("failed to clear pending posts: %w", err)
		}

		query := `insert into optimistic_posts (temp_id, position, status, created_at, body) values (?, ?, ?, ?, ?)`
		for i, rec := range records {
			body, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode post %s: %w", rec.TempID, err)
			}
			_, err = tx.ExecContext(ctx, query,
				rec.TempID, i, string(rec.Status), rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(body))
			if err != nil {
				return fmt.Errorf("failed to insert post %s: %w", rec.TempID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]models.PostRecord, error) {
	rows, err := r.db.QueryContext(ctx, `select body from optimistic_posts order by position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending posts: %w", err)
	}
	defer rows.Close()

	result := []models.PostRecord{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var rec models.PostRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode pending post: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
