package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MediaFile is a row of media_files. Title is the normalized file title.
type MediaFile struct {
	ID         uuid.UUID
	Title      string
	StorageKey string
	MIMEType   string
	SizeBytes  int64
	CreatedAt  time.Time
}

const mediaFileColumns = `id, title, storage_key, mime_type, size_bytes, created_at`

func scanMediaFile(row pgx.Row) (*MediaFile, error) {
	var f MediaFile
	if err := row.Scan(&f.ID, &f.Title, &f.StorageKey, &f.MIMEType, &f.SizeBytes, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetMediaFileByTitle returns pgx.ErrNoRows when the title is unknown.
func (q *Queries) GetMediaFileByTitle(ctx context.Context, title string) (*MediaFile, error) {
	row := q.db.QueryRow(ctx, `SELECT `+mediaFileColumns+` FROM media_files WHERE title = $1`, title)
	return scanMediaFile(row)
}

func (q *Queries) ListMediaFiles(ctx context.Context) ([]*MediaFile, error) {
	rows, err := q.db.Query(ctx, `SELECT `+mediaFileColumns+` FROM media_files ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list media files: %w", err)
	}
	defer rows.Close()

	files := []*MediaFile{}
	for rows.Next() {
		f, err := scanMediaFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type UpsertMediaFileParams struct {
	Title      string
	StorageKey string
	MIMEType   string
	SizeBytes  int64
}

// UpsertMediaFile registers a file, replacing the storage details of an
// existing row with the same title.
func (q *Queries) UpsertMediaFile(ctx context.Context, p UpsertMediaFileParams) (*MediaFile, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO media_files (id, title, storage_key, mime_type, size_bytes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title) DO UPDATE SET storage_key = EXCLUDED.storage_key, mime_type = EXCLUDED.mime_type, size_bytes = EXCLUDED.size_bytes
RETURNING `+mediaFileColumns,
		uuid.New(), p.Title, p.StorageKey, p.MIMEType, p.SizeBytes)
	f, err := scanMediaFile(row)
	if err != nil {
		return nil, fmt.Errorf("upsert media file %q: %w", p.Title, err)
	}
	return f, nil
}
