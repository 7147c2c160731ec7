package filerepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/spf13/afero"
	"thirdcoast.systems/h5video/pkg/videotag"
)

// LocalRepository serves files stored flat in an upload directory.
type LocalRepository struct {
	fs            afero.Fs
	publicBaseURL string
}

// NewLocalRepository roots the repository at dir inside fsys.
func NewLocalRepository(fsys afero.Fs, dir, publicBaseURL string) *LocalRepository {
	return &LocalRepository{
		fs:            afero.NewBasePathFs(fsys, dir),
		publicBaseURL: publicBaseURL,
	}
}

func (r *LocalRepository) FindFile(ctx context.Context, name string) (videotag.File, error) {
	title, err := NormalizeTitle(name)
	if err != nil {
		return nil, err
	}

	info, err := r.fs.Stat(title)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("local file %q: %w", title, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", title, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("local file %q is not a regular file: %w", title, ErrNotFound)
	}

	return r.mediaFile(title, info), nil
}

// List returns every regular file in the upload directory, sorted by title.
// Files whose names are not normalized titles can never be resolved and are
// skipped with a warning.
func (r *LocalRepository) List(ctx context.Context) ([]*MediaFile, error) {
	infos, err := afero.ReadDir(r.fs, "/")
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	files := make([]*MediaFile, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		if title, err := NormalizeTitle(info.Name()); err != nil || title != info.Name() {
			slog.Warn("skipping upload with unresolvable name", "name", info.Name(), "title", title)
			continue
		}
		files = append(files, r.mediaFile(info.Name(), info))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Title < files[j].Title })
	return files, nil
}

// Fs exposes the rooted filesystem so the web server can serve file bodies.
func (r *LocalRepository) Fs() afero.Fs {
	return r.fs
}

func (r *LocalRepository) mediaFile(title string, info fs.FileInfo) *MediaFile {
	return &MediaFile{
		Title:    title,
		URL:      mediaURL(r.publicBaseURL, title),
		MIMEType: mimeType(title),
		Size:     info.Size(),
	}
}
