package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	gomysql "github.com/go-sql-driver/mysql"

	"reviewlens/internal/domain"
)

// Repo stores each analysis as a JSON document row keyed by its URL-derived id.
// The table is created on first use and retried until it succeeds, so a
// server that is down at startup is picked up once it comes back.
type Repo struct {
	db *sql.DB

	mu          sync.Mutex
	schemaReady bool
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EnsureSchema creates the analyses table when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemaReady {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, createAnalysesSQL); err != nil {
		return wrap("ensure schema", err)
	}
	r.schemaReady = true
	return nil
}

// wrap marks connection-level failures as ErrStoreUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.As(err, &ne) {
		return fmt.Errorf("%w: mysql %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("mysql %s: %w", op, err)
}

func (r *Repo) Upsert(ctx context.Context, a domain.BusinessAnalysis) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = domain.AnalysisID(a.URL)
	}
	doc, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertAnalysisSQL,
		a.ID,
		a.URL,
		a.Category.ID,
		string(doc),
		a.AnalyzedAt.UTC(),
	)
	return wrap("upsert", err)
}

func (r *Repo) query(ctx context.Context, op, q string, args ...any) ([]domain.BusinessAnalysis, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	out := []domain.BusinessAnalysis{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, wrap(op, err)
		}
		var a domain.BusinessAnalysis
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("mysql %s: decode doc: %w", op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	return r.query(ctx, "list", listAnalysesSQL)
}

func (r *Repo) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	return r.query(ctx, "list_by_category", listAnalysesByCategorySQL, categoryID)
}

func (r *Repo) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return domain.BusinessAnalysis{}, err
	}
	var raw []byte
	err := r.db.QueryRowContext(ctx, getAnalysisSQL, domain.AnalysisID(url)).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.BusinessAnalysis{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.BusinessAnalysis{}, wrap("get", err)
	}
	var a domain.BusinessAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.BusinessAnalysis{}, fmt.Errorf("mysql get: decode doc: %w", err)
	}
	return a, nil
}

func (r *Repo) DeleteByURL(ctx context.Context, url string) (bool, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, deleteAnalysisSQL, domain.AnalysisID(url))
	if err != nil {
		return false, wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("delete", err)
	}
	return n > 0, nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, clearAnalysesSQL)
	return wrap("clear", err)
}

// Close releases the injected pool; call once at shutdown.
func (r *Repo) Close(ctx context.Context) error { return r.db.Close() }
