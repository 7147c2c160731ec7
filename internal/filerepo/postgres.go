package filerepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/pkg/videotag"
)

// PostgresRepository resolves titles through the media_files table. File
// bodies live under storage keys in the media filesystem.
type PostgresRepository struct {
	dbc           db.DBTX
	media         afero.Fs
	publicBaseURL string
}

// NewPostgresRepository builds the repository. media may be nil, in which
// case Register always fails.
func NewPostgresRepository(dbc db.DBTX, media afero.Fs, publicBaseURL string) *PostgresRepository {
	return &PostgresRepository{dbc: dbc, media: media, publicBaseURL: publicBaseURL}
}

func (r *PostgresRepository) FindFile(ctx context.Context, name string) (videotag.File, error) {
	title, err := NormalizeTitle(name)
	if err != nil {
		return nil, err
	}

	row, err := db.New(r.dbc).GetMediaFileByTitle(ctx, title)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("media file %q: %w", title, ErrNotFound)
		}
		return nil, fmt.Errorf("get media file %q: %w", title, err)
	}
	return r.mediaFile(row), nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*MediaFile, error) {
	rows, err := db.New(r.dbc).ListMediaFiles(ctx)
	if err != nil {
		return nil, err
	}
	files := make([]*MediaFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, r.mediaFile(row))
	}
	return files, nil
}

// Register records the media object stored at key under the title derived
// from its base name. Registering a title again replaces its storage details.
func (r *PostgresRepository) Register(ctx context.Context, key string) (*MediaFile, error) {
	if r.media == nil {
		return nil, errors.New("no media filesystem configured")
	}

	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || strings.Contains(key, "\\") {
		return nil, ErrInvalidTitle
	}
	title, err := NormalizeTitle(path.Base(key))
	if err != nil {
		return nil, err
	}

	info, err := r.media.Stat(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("media object %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("media object %q is not a regular file: %w", key, ErrNotFound)
	}

	row, err := db.New(r.dbc).UpsertMediaFile(ctx, db.UpsertMediaFileParams{
		Title:      title,
		StorageKey: key,
		MIMEType:   mimeType(key),
		SizeBytes:  info.Size(),
	})
	if err != nil {
		if db.IsUndefinedTableErr(err) {
			return nil, fmt.Errorf("media_files is missing, run pg-migrator: %w", err)
		}
		return nil, err
	}
	return r.mediaFile(row), nil
}

func (r *PostgresRepository) mediaFile(row *db.MediaFile) *MediaFile {
	return &MediaFile{
		Title:    row.Title,
		URL:      mediaURL(r.publicBaseURL, row.StorageKey),
		MIMEType: row.MIMEType,
		Size:     row.SizeBytes,
	}
}
