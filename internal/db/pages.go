package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// pageNamespace scopes page ids; the name string is the trimmed page title.
var pageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("h5video:page"))

// PageID returns the deterministic UUIDv5 of a page title.
func PageID(title string) uuid.UUID {
	return uuid.NewSHA1(pageNamespace, []byte(strings.TrimSpace(title)))
}

// PageLinks is the link metadata recorded by the last render of a page.
type PageLinks struct {
	PageID        uuid.UUID `json:"page_id"`
	Title         string    `json:"title"`
	ExternalLinks []string  `json:"external_links"`
	ImageUsages   []string  `json:"image_usages"`
}

// ReplacePageLinks stores links as the complete link set of its page.
func ReplacePageLinks(ctx context.Context, dbc TxBeginner, links PageLinks) (err error) {
	tx, err := dbc.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	q := New(tx)
	if err = q.upsertPage(ctx, links.PageID, links.Title); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM page_external_links WHERE page_id = $1`, links.PageID); err != nil {
		return fmt.Errorf("clear external links: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM page_image_usages WHERE page_id = $1`, links.PageID); err != nil {
		return fmt.Errorf("clear image usages: %w", err)
	}
	for i, u := range links.ExternalLinks {
		if _, err = tx.Exec(ctx, `INSERT INTO page_external_links (page_id, position, url) VALUES ($1, $2, $3)`, links.PageID, i, u); err != nil {
			return fmt.Errorf("insert external link: %w", err)
		}
	}
	for i, f := range links.ImageUsages {
		if _, err = tx.Exec(ctx, `INSERT INTO page_image_usages (page_id, position, file_title) VALUES ($1, $2, $3)`, links.PageID, i, f); err != nil {
			return fmt.Errorf("insert image usage: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit page links: %w", err)
	}
	return nil
}

func (q *Queries) upsertPage(ctx context.Context, id uuid.UUID, title string) error {
	_, err := q.db.Exec(ctx, `INSERT INTO pages (id, title) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET updated_at = now()`, id, strings.TrimSpace(title))
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

// GetPageLinks returns the stored links of a page, or pgx.ErrNoRows if the
// page was never rendered with link persistence.
func (q *Queries) GetPageLinks(ctx context.Context, id uuid.UUID) (*PageLinks, error) {
	links := &PageLinks{PageID: id, ExternalLinks: []string{}, ImageUsages: []string{}}
	if err := q.db.QueryRow(ctx, `SELECT title FROM pages WHERE id = $1`, id).Scan(&links.Title); err != nil {
		return nil, err
	}

	var err error
	if links.ExternalLinks, err = q.column(ctx, `SELECT url FROM page_external_links WHERE page_id = $1 ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("external links: %w", err)
	}
	if links.ImageUsages, err = q.column(ctx, `SELECT file_title FROM page_image_usages WHERE page_id = $1 ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("image usages: %w", err)
	}
	return links, nil
}

// PagesUsingFile lists the titles of pages embedding the given file.
func (q *Queries) PagesUsingFile(ctx context.Context, fileTitle string) ([]string, error) {
	titles, err := q.column(ctx, `SELECT p.title FROM page_image_usages u JOIN pages p ON p.id = u.page_id WHERE u.file_title = $1 ORDER BY p.title`, fileTitle)
	if err != nil {
		return nil, fmt.Errorf("pages using %q: %w", fileTitle, err)
	}
	return titles, nil
}

func (q *Queries) column(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// IsNoRows reports whether err means a lookup matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
