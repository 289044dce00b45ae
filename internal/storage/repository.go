package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists ledger entries and categories. It implements the
// services.EntryStore and services.CategoryStore ports plus the export-queue
// queries used by the export worker.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// between the API and the sweep sharing one file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const entryColumns = `id, description, amount, entry_date, kind, notes,
	category_id, owner_id, recurrence_kind, installment_count,
	installment_index, frequency, parent_id, active, created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, e core.LedgerEntry) error {
	if err := r.insertTx(ctx, r.db, e); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"date", e.Date.String(),
		"recurrence", e.Recurrence.Kind)
	return nil
}

func (r *SQLiteRepository) InsertBatch(ctx context.Context, entries []core.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := r.insertTx(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) insertTx(ctx context.Context, db execer, e core.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(),
		e.Description,
		e.Amount.String(),
		e.Date.String(),
		string(e.Kind),
		e.Notes,
		e.CategoryID.String(),
		e.OwnerID.String(),
		string(e.Recurrence.Kind),
		nullableInt(e.Recurrence.InstallmentCount),
		nullableInt(e.Recurrence.InstallmentIndex),
		nullableString(string(e.Recurrence.Frequency)),
		nullableUUID(e.ParentID),
		e.Active,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateOccurrence
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE id = ?`, id.String())
	return scanEntry(row)
}

func (r *SQLiteRepository) Update(ctx context.Context, e core.LedgerEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET description = ?, amount = ?, entry_date = ?, notes = ?,
		    category_id = ?, updated_at = ?, exported_at = NULL
		WHERE id = ?`,
		e.Description,
		e.Amount.String(),
		e.Date.String(),
		e.Notes,
		e.CategoryID.String(),
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		e.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateOccurrence
		}
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteOccurrencesAfter(ctx context.Context, parentID uuid.UUID, after core.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM entries WHERE parent_id = ? AND entry_date > ?`,
		parentID.String(), after.String())
	if err != nil {
		return 0, fmt.Errorf("delete future occurrences: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted occurrences: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) OccurrenceExists(ctx context.Context, parentID uuid.UUID, date core.Date) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM entries WHERE parent_id = ? AND entry_date = ?`,
		parentID.String(), date.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check occurrence: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) LatestOccurrenceDate(ctx context.Context, parentID uuid.UUID) (core.Date, bool, error) {
	// MAX over zero rows yields a single NULL row.
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(entry_date) FROM entries WHERE parent_id = ?`,
		parentID.String()).Scan(&raw)
	if err != nil {
		return core.Date{}, false, fmt.Errorf("latest occurrence: %w", err)
	}
	if !raw.Valid {
		return core.Date{}, false, nil
	}
	d, err := core.ParseDate(raw.String)
	if err != nil {
		return core.Date{}, false, fmt.Errorf("parse occurrence date: %w", err)
	}
	return d, true, nil
}

func (r *SQLiteRepository) FindByOwnerAndDateRange(ctx context.Context, owner uuid.UUID, from, to core.Date) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE owner_id = ? AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date, created_at`,
		owner.String(), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query entries by range: %w", err)
	}
	return scanEntries(rows)
}

func (r *SQLiteRepository) FindByOwner(ctx context.Context, owner uuid.UUID) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE owner_id = ?
		ORDER BY entry_date, created_at`,
		owner.String())
	if err != nil {
		return nil, fmt.Errorf("query entries by owner: %w", err)
	}
	return scanEntries(rows)
}

func (r *SQLiteRepository) FindActiveFixedOrigins(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE recurrence_kind = ? AND parent_id IS NULL AND active = 1
		ORDER BY entry_date`,
		string(core.Fixed))
	if err != nil {
		return nil, fmt.Errorf("query active fixed origins: %w", err)
	}
	return scanEntries(rows)
}

func (r *SQLiteRepository) FindOriginsByOwner(ctx context.Context, owner uuid.UUID, kind core.RecurrenceKind, active bool) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE owner_id = ? AND recurrence_kind = ? AND parent_id IS NULL AND active = ?
		ORDER BY entry_date`,
		owner.String(), string(kind), active)
	if err != nil {
		return nil, fmt.Errorf("query origins by owner: %w", err)
	}
	return scanEntries(rows)
}

func (r *SQLiteRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC().Format(time.RFC3339Nano), id.String())
	if err != nil {
		return fmt.Errorf("set active flag: %w", err)
	}
	return requireRow(res)
}

// GetByIDAndOwner implements services.CategoryStore.
func (r *SQLiteRepository) GetByIDAndOwner(ctx context.Context, id, owner uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, owner_id, created_at FROM categories
		WHERE id = ? AND owner_id = ?`,
		id.String(), owner.String())
	return scanCategory(row)
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, owner_id, created_at FROM categories
		WHERE owner_id = ?
		ORDER BY kind, name`,
		owner.String())
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeedCategories inserts the default category set for an owner that has none
// yet. Safe to call on every startup.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, owner uuid.UUID) error {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE owner_id = ?`,
		owner.String()).Scan(&count)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		name string
		kind core.Kind
	}{
		{"Salario", core.Income},
		{"Rendimentos", core.Income},
		{"Outras receitas", core.Income},
		{"Moradia", core.Expense},
		{"Alimentacao", core.Expense},
		{"Transporte", core.Expense},
		{"Saude", core.Expense},
		{"Lazer", core.Expense},
		{"Educacao", core.Expense},
		{"Outras despesas", core.Expense},
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category seed: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, d := range defaults {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, kind, owner_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), d.name, string(d.kind), owner.String(), now)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", d.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded default categories",
		"owner", owner, "count", len(defaults))
	return nil
}

// PendingExportEntry is the minimal row the export worker needs to queue work.
type PendingExportEntry struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// PendingExports lists entries not yet mirrored to the external sheet, oldest
// first. Deleted entries simply disappear from this queue.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]PendingExportEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM entries
		WHERE exported_at IS NULL
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExportEntry
	for rows.Next() {
		var (
			rawID      string
			rawCreated string
		)
		if err := rows.Scan(&rawID, &rawCreated); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse pending export id: %w", err)
		}
		created, err := time.Parse(time.RFC3339Nano, rawCreated)
		if err != nil {
			return nil, fmt.Errorf("parse pending export timestamp: %w", err)
		}
		out = append(out, PendingExportEntry{ID: id, CreatedAt: created})
	}
	return out, rows.Err()
}

// MarkExported stamps the entry as mirrored.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET exported_at = ?, export_errors = 0 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id.String())
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return requireRow(res)
}

// MarkExportError bumps the failure counter; the entry stays in the pending
// queue for the next sweep.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entries SET export_errors = export_errors + 1 WHERE id = ?`,
		id.String())
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.LedgerEntry, error) {
	var (
		e                 core.LedgerEntry
		rawID             string
		rawAmount         string
		rawDate           string
		rawKind           string
		rawCategory       string
		rawOwner          string
		rawRecurrence     string
		installmentCount  sql.NullInt64
		installmentIndex  sql.NullInt64
		frequency         sql.NullString
		parentID          sql.NullString
		rawCreated        string
		rawUpdated        string
	)

	err := row.Scan(&rawID, &e.Description, &rawAmount, &rawDate, &rawKind,
		&e.Notes, &rawCategory, &rawOwner, &rawRecurrence,
		&installmentCount, &installmentIndex, &frequency, &parentID,
		&e.Active, &rawCreated, &rawUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	if e.ID, err = uuid.Parse(rawID); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse entry id: %w", err)
	}
	if e.Amount, err = decimal.NewFromString(rawAmount); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse amount: %w", err)
	}
	if e.Date, err = core.ParseDate(rawDate); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse entry date: %w", err)
	}
	e.Kind = core.Kind(rawKind)
	if e.CategoryID, err = uuid.Parse(rawCategory); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse category id: %w", err)
	}
	if e.OwnerID, err = uuid.Parse(rawOwner); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse owner id: %w", err)
	}

	e.Recurrence = core.Recurrence{Kind: core.RecurrenceKind(rawRecurrence)}
	if installmentCount.Valid {
		e.Recurrence.InstallmentCount = int(installmentCount.Int64)
	}
	if installmentIndex.Valid {
		e.Recurrence.InstallmentIndex = int(installmentIndex.Int64)
	}
	if frequency.Valid {
		e.Recurrence.Frequency = core.Frequency(frequency.String)
	}

	if parentID.Valid {
		p, err := uuid.Parse(parentID.String)
		if err != nil {
			return core.LedgerEntry{}, fmt.Errorf("parse parent id: %w", err)
		}
		e.ParentID = &p
	}

	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, rawCreated); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, rawUpdated); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return e, nil
}

func scanEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	defer rows.Close()
	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c          core.Category
		rawID      string
		rawKind    string
		rawOwner   string
		rawCreated string
	)
	err := row.Scan(&rawID, &c.Name, &rawKind, &rawOwner, &rawCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}

	if c.ID, err = uuid.Parse(rawID); err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	c.Kind = core.Kind(rawKind)
	if c.OwnerID, err = uuid.Parse(rawOwner); err != nil {
		return core.Category{}, fmt.Errorf("parse category owner: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, rawCreated); err != nil {
		return core.Category{}, fmt.Errorf("parse category created_at: %w", err)
	}
	return c, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches on the SQLite error text because the driver does
// not export stable error values for constraint codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return int64(v)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableUUID(v *uuid.UUID) any {
	if v == nil {
		return nil
	}
	return v.String()
}
