// Package fixturedb builds the fixture database files from a JSON fixture
// spec. The spec declares tables with typed columns and literal rows; the
// primary tables go into the fixture database, the extra tables into the
// secondary one used to simulate a second database instance.
package fixturedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // database/sql driver
)

// Spec is the parsed fixture specification.
type Spec struct {
	// Tables are written to the primary fixture database.
	Tables []Table `json:"tables"`
	// ExtraTables are written to the secondary ("extra") database.
	ExtraTables []Table `json:"extra_tables"`
}

// Table declares one table with its columns and literal rows.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Column declares one typed column.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var columnTypes = map[string]string{
	"integer": "INTEGER",
	"text":    "TEXT",
	"real":    "REAL",
	"blob":    "BLOB",
}

// LoadSpec parses and validates a fixture spec document.
func LoadSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("invalid fixture spec (%w)", err)
	}
	if len(spec.Tables) == 0 {
		return nil, fmt.Errorf("fixture spec declares no tables")
	}
	for _, table := range append(append([]Table{}, spec.Tables...), spec.ExtraTables...) {
		if err := validateTable(table); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

func validateTable(table Table) error {
	if !identifierRe.MatchString(table.Name) {
		return fmt.Errorf("invalid table name: %q", table.Name)
	}
	if len(table.Columns) == 0 {
		return fmt.Errorf("table %s declares no columns", table.Name)
	}
	for _, column := range table.Columns {
		if !identifierRe.MatchString(column.Name) {
			return fmt.Errorf("table %s has an invalid column name: %q", table.Name, column.Name)
		}
		if _, ok := columnTypes[column.Type]; !ok {
			return fmt.Errorf(
				"table %s column %s has unsupported type %q (supported: integer, text, real, blob)",
				table.Name,
				column.Name,
				column.Type,
			)
		}
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf(
				"table %s row %d has %d values for %d columns",
				table.Name,
				i,
				len(row),
				len(table.Columns),
			)
		}
	}
	return nil
}

// Build creates a SQLite database file at dbPath containing the passed
// tables. An existing file is overwritten table by table.
func Build(ctx context.Context, dbPath string, tables []Table) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s (%w)", dbPath, err)
	}
	defer func() {
		_ = db.Close()
	}()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s (%w)", dbPath, err)
	}
	for _, table := range tables {
		if err := createTable(ctx, tx, table); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s (%w)", dbPath, err)
	}
	return nil
}

func createTable(ctx context.Context, tx *sql.Tx, table Table) error {
	columnDefs := make([]string, len(table.Columns))
	columnNames := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		def := fmt.Sprintf("%q %s", column.Name, columnTypes[column.Type])
		if column.PrimaryKey {
			def += " PRIMARY KEY"
		}
		columnDefs[i] = def
		columnNames[i] = fmt.Sprintf("%q", column.Name)
		placeholders[i] = "?"
	}
	createStmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %q (%s)",
		table.Name,
		strings.Join(columnDefs, ", "),
	)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table %s (%w)", table.Name, err)
	}
	if len(table.Rows) == 0 {
		return nil
	}
	insertStmt := fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s)",
		table.Name,
		strings.Join(columnNames, ", "),
		strings.Join(placeholders, ", "),
	)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for table %s (%w)", table.Name, err)
	}
	defer func() {
		_ = stmt.Close()
	}()
	for i, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into table %s (%w)", i, table.Name, err)
		}
	}
	return nil
}
