// Package docsite renders a tree of markdown documentation into a queryable
// documentation database: each page becomes one row with its path, title and
// rendered body.
package docsite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	_ "modernc.org/sqlite" // database/sql driver
)

// Page is a single rendered documentation page.
type Page struct {
	// Path is the source file path relative to the documentation root,
	// without the markdown extension.
	Path string
	// Title is the first top-level heading, or the file name if the page has
	// none.
	Title string
	// Body is the rendered HTML.
	Body string
}

// Render walks the documentation root and renders every markdown file. Pages
// are returned in deterministic path order.
func Render(root string) ([]Page, error) {
	md := goldmark.New()
	var pages []Page
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk documentation tree (%w)", err)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		source, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return fmt.Errorf("failed to read %s (%w)", path, err)
		}
		var buf bytes.Buffer
		if err := md.Convert(source, &buf); err != nil {
			return fmt.Errorf("failed to render %s (%w)", path, err)
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = strings.TrimSuffix(filepath.ToSlash(relPath), ".md")
		pages = append(pages, Page{
			Path:  relPath,
			Title: pageTitle(source, relPath),
			Body:  buf.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no markdown pages found under %s", root)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Path < pages[j].Path
	})
	return pages, nil
}

// pageTitle extracts the first top-level heading from markdown source.
func pageTitle(source []byte, fallback string) string {
	for _, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return fallback
}

// WriteDatabase writes the rendered pages into a documentation database at
// dbPath.
func WriteDatabase(ctx context.Context, dbPath string, pages []Page) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open documentation database %s (%w)", dbPath, err)
	}
	defer func() {
		_ = db.Close()
	}()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on %s (%w)", dbPath, err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`CREATE TABLE IF NOT EXISTS pages (path TEXT PRIMARY KEY, title TEXT, body TEXT)`,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create pages table (%w)", err)
	}
	for _, page := range pages {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR REPLACE INTO pages (path, title, body) VALUES (?, ?, ?)`,
			page.Path,
			page.Title,
			page.Body,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert page %s (%w)", page.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s (%w)", dbPath, err)
	}
	return nil
}
