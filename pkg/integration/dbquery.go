package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DBQuery runs a SQL statement against a SQLite database. The DSN comes
// from the node's credential ("dsn") so connection details never sit in
// the workflow definition; a config "dsn" works for local files.
type DBQuery struct{}

func NewDBQuery() *DBQuery { return &DBQuery{} }

func (d *DBQuery) Execute(ctx context.Context, config map[string]any, credentials map[string]string) (map[string]any, error) {
	query := configString(config, "query")

	dsn := credentials["dsn"]
	if dsn == "" {
		dsn = configString(config, "dsn")
	}
	if dsn == "" {
		return nil, fmt.Errorf("db query: no dsn in credentials or config")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db query: open: %w", err)
	}
	defer db.Close()

	if isRowQuery(query) {
		return d.queryRows(ctx, db, query)
	}
	return d.exec(ctx, db, query)
}

func (d *DBQuery) queryRows(ctx context.Context, db *sql.DB, query string) (map[string]any, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if by, ok := values[i].([]byte); ok {
				row[col] = string(by)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]any{
		"status":   "success",
		"rowCount": len(out),
		"rows":     out,
	}, nil
}

func (d *DBQuery) exec(ctx context.Context, db *sql.DB, query string) (map[string]any, error) {
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db exec: %w", err)
	}
	affected, _ := result.RowsAffected()
	return map[string]any{
		"status":   "success",
		"rowCount": int(affected),
		"rows":     []any{},
	}, nil
}

func isRowQuery(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH") || strings.HasPrefix(head, "PRAGMA")
}
