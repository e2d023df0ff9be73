// Package sqlite provides a SQLite-backed record repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository implements ports.Repository over arbitrary SQLite tables.
// Table and column names come from grid configuration and are validated as
// plain identifiers before being quoted into statements.
type Repository struct {
	sqlDB *sql.DB
}

// Open opens a SQLite database.
func Open(dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on one connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Repository{sqlDB: sqlDB}, nil
}

// NewFromDB wraps an open database handle.
func NewFromDB(db *sql.DB) *Repository {
	return &Repository{sqlDB: db}
}

// Close closes the SQLite handle.
func (r *Repository) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.sqlDB.PingContext(ctx)
}

// EnsureTable creates the table when missing: an integer autoincrement id,
// an integer sort column when configured, and text columns.
func (r *Repository) EnsureTable(ctx context.Context, t domain.Table, columns []string) error {
	if err := checkTable(t); err != nil {
		return err
	}
	defs := []string{quote(t.IDField) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	if t.SortField != "" {
		defs = append(defs, quote(t.SortField)+" INTEGER NOT NULL DEFAULT 0")
	}
	for _, col := range columns {
		if col == t.IDField || col == t.SortField {
			continue
		}
		if !identifier.MatchString(col) {
			return domain.BadRequest("invalid column name %q", col)
		}
		defs = append(defs, quote(col)+" TEXT")
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.Name), strings.Join(defs, ", "))
	if _, err := r.sqlDB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", t.Name, err)
	}
	return nil
}

// Insert stores rec and returns the generated integer id.
func (r *Repository) Insert(ctx context.Context, t domain.Table, rec domain.Record) (string, error) {
	if err := checkTable(t); err != nil {
		return "", err
	}

	values := rec.Clone()
	delete(values, t.IDField)
	for k, v := range t.Scope {
		values[k] = v
	}

	tx, err := r.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if t.SortField != "" {
		where, args := scopeClause(t)
		var next int64
		query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s%s", quote(t.SortField), quote(t.Name), where)
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
			return "", fmt.Errorf("next position in %s: %w", t.Name, err)
		}
		values[t.SortField] = strconv.FormatInt(next, 10)
	}

	cols := sortedKeys(values)
	quoted := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if !identifier.MatchString(col) {
			return "", domain.BadRequest("invalid column name %q", col)
		}
		quoted[i] = quote(col)
		args[i] = values[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.Name), strings.Join(quoted, ", "), placeholders(len(cols)))
	if len(cols) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(t.Name))
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return "", mapError(fmt.Sprintf("insert into %s", t.Name), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", t.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit insert: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Update overwrites the given columns. Scope and id columns are kept.
func (r *Repository) Update(ctx context.Context, t domain.Table, id string, rec domain.Record) error {
	if err := checkTable(t); err != nil {
		return err
	}

	var sets []string
	var args []any
	for _, col := range sortedKeys(rec) {
		if col == t.IDField {
			continue
		}
		if _, scoped := t.Scope[col]; scoped {
			continue
		}
		if !identifier.MatchString(col) {
			return domain.BadRequest("invalid column name %q", col)
		}
		sets = append(sets, quote(col)+" = ?")
		args = append(args, rec[col])
	}
	if len(sets) == 0 {
		_, err := r.Get(ctx, t, id)
		return err
	}

	where, whereArgs := recordClause(t, id)
	stmt := fmt.Sprintf("UPDATE %s SET %s%s", quote(t.Name), strings.Join(sets, ", "), where)
	res, err := r.sqlDB.ExecContext(ctx, stmt, append(args, whereArgs...)...)
	if err != nil {
		return mapError(fmt.Sprintf("update %s/%s", t.Name, id), err)
	}
	return expectOne(res, t, id)
}

// Delete removes the record.
func (r *Repository) Delete(ctx context.Context, t domain.Table, id string) error {
	if err := checkTable(t); err != nil {
		return err
	}
	where, args := recordClause(t, id)
	res, err := r.sqlDB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s%s", quote(t.Name), where), args...)
	if err != nil {
		return mapError(fmt.Sprintf("delete %s/%s", t.Name, id), err)
	}
	return expectOne(res, t, id)
}

// Move renumbers the scope in one transaction.
func (r *Repository) Move(ctx context.Context, t domain.Table, id, targetID string, pos domain.Position) error {
	if err := checkTable(t); err != nil {
		return err
	}
	if t.SortField == "" {
		return domain.BadRequest("table %s has no sort field", t.Name)
	}

	tx, err := r.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	where, args := scopeClause(t)
	query := fmt.Sprintf("SELECT CAST(%s AS TEXT) FROM %s%s ORDER BY %s, %s",
		quote(t.IDField), quote(t.Name), where, quote(t.SortField), quote(t.IDField))
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("read order of %s: %w", t.Name, err)
	}
	var ids []string
	for rows.Next() {
		var rowID string
		if err := rows.Scan(&rowID); err != nil {
			_ = rows.Close()
			return fmt.Errorf("read order of %s: %w", t.Name, err)
		}
		ids = append(ids, rowID)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, want := range []string{id, targetID} {
		if !slices.Contains(ids, want) {
			return fmt.Errorf("%s/%s: %w", t.Name, want, domain.ErrRecordNotFound)
		}
	}
	if id == targetID {
		return nil
	}

	order := slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
	to := slices.Index(order, targetID)
	if pos == domain.After {
		to++
	}
	order = slices.Insert(order, to, id)

	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", quote(t.Name), quote(t.SortField), quote(t.IDField))
	for i, rowID := range order {
		if _, err := tx.ExecContext(ctx, stmt, i+1, rowID); err != nil {
			return fmt.Errorf("renumber %s: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}

// Get loads a single record.
func (r *Repository) Get(ctx context.Context, t domain.Table, id string) (domain.Record, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	where, args := recordClause(t, id)
	recs, err := r.query(ctx, fmt.Sprintf("SELECT * FROM %s%s", quote(t.Name), where), args...)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", t.Name, id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	return recs[0], nil
}

// List filters with case-insensitive LIKE and pages with LIMIT/OFFSET.
func (r *Repository) List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error) {
	if err := checkTable(t); err != nil {
		return nil, 0, err
	}

	where, args := scopeClause(t)
	var conds []string
	if where != "" {
		conds = append(conds, strings.TrimPrefix(where, " WHERE "))
	}
	for _, field := range sortedKeys(q.Filters) {
		needle := q.Filters[field]
		if needle == "" {
			continue
		}
		if !identifier.MatchString(field) {
			return nil, 0, domain.BadRequest("invalid filter field %q", field)
		}
		conds = append(conds, fmt.Sprintf(`LOWER(CAST(%s AS TEXT)) LIKE ? ESCAPE '\'`, quote(field)))
		args = append(args, "%"+escapeLike(strings.ToLower(needle))+"%")
	}
	where = ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quote(t.Name), where)
	if err := r.sqlDB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	order := quote(t.IDField)
	if t.SortField != "" {
		order = quote(t.SortField) + ", " + order
	}
	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	listQuery := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s LIMIT ? OFFSET ?", quote(t.Name), where, order)
	recs, err := r.query(ctx, listQuery, append(args, limit, max(q.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", t.Name, err)
	}
	return recs, total, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := r.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []domain.Record
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(domain.Record, len(cols))
		for i, col := range cols {
			rec[col] = vals[i].String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func checkTable(t domain.Table) error {
	for _, name := range []string{t.Name, t.IDField} {
		if !identifier.MatchString(name) {
			return domain.BadRequest("invalid identifier %q", name)
		}
	}
	if t.SortField != "" && !identifier.MatchString(t.SortField) {
		return domain.BadRequest("invalid identifier %q", t.SortField)
	}
	for col := range t.Scope {
		if !identifier.MatchString(col) {
			return domain.BadRequest("invalid identifier %q", col)
		}
	}
	return nil
}

func scopeClause(t domain.Table) (string, []any) {
	if len(t.Scope) == 0 {
		return "", nil
	}
	var conds []string
	var args []any
	for _, col := range sortedKeys(t.Scope) {
		conds = append(conds, quote(col)+" = ?")
		args = append(args, t.Scope[col])
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func recordClause(t domain.Table, id string) (string, []any) {
	where, args := scopeClause(t)
	cond := quote(t.IDField) + " = ?"
	if where == "" {
		return " WHERE " + cond, []any{id}
	}
	return where + " AND " + cond, append(args, id)
}

func expectOne(res sql.Result, t domain.Table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	return nil
}

// mapError turns constraint violations into bad requests.
func mapError(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_NOTNULL,
			sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return &domain.BadRequestError{Reason: op + ": " + sqliteErr.Error()}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func quote(name string) string {
	return `"` + name + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
