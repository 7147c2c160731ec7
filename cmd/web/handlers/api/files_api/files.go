// package files_api provides the media file API handlers.
package files_api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/h5video/cmd/web/handlers/common"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/internal/filerepo"
)

// Lister enumerates the files of a repository.
type Lister interface {
	List(ctx context.Context) ([]*filerepo.MediaFile, error)
}

// Registrar records a stored media object as a file.
type Registrar interface {
	Register(ctx context.Context, key string) (*filerepo.MediaFile, error)
}

type fileEntry struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	MIMEType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
}

// HandleList lists the known media files. A nil lister means the backend
// cannot enumerate files.
func HandleList(lister Lister) echo.HandlerFunc {
	return func(c echo.Context) error {
		if lister == nil {
			return common.ErrNotImplemented("file backend cannot list files")
		}

		files, err := lister.List(c.Request().Context())
		if err != nil {
			slog.Error("failed to list media files", "error", err)
			return common.ErrInternal("failed to list files")
		}

		entries := make([]fileEntry, 0, len(files))
		for _, f := range files {
			entries = append(entries, newFileEntry(f))
		}
		return c.JSON(200, map[string]any{"files": entries})
	}
}

// HandleRegister records the media object named by the key of the request
// body. A nil registrar means the backend has no file table.
func HandleRegister(reg Registrar) echo.HandlerFunc {
	return func(c echo.Context) error {
		if reg == nil {
			return common.ErrNotImplemented("file backend cannot register files")
		}

		var req struct {
			Key string `json:"key"`
		}
		if err := c.Bind(&req); err != nil {
			return common.ErrBadRequest("invalid request body")
		}

		f, err := reg.Register(c.Request().Context(), req.Key)
		switch {
		case errors.Is(err, filerepo.ErrInvalidTitle):
			return common.ErrBadRequest("invalid key")
		case errors.Is(err, filerepo.ErrNotFound):
			return common.ErrNotFound("media object not found")
		case err != nil:
			slog.Error("failed to register media file", "key", req.Key, "error", err)
			return common.ErrInternal("failed to register file")
		}
		return c.JSON(http.StatusCreated, newFileEntry(f))
	}
}

func newFileEntry(f *filerepo.MediaFile) fileEntry {
	return fileEntry{
		Title:     f.Title,
		URL:       f.URL,
		MIMEType:  f.MIMEType,
		Size:      f.Size,
		SizeHuman: humanize.Bytes(uint64(max(f.Size, 0))),
	}
}

// HandleUsage lists the pages that embed a file, as recorded by persisted renders.
func HandleUsage(dbc db.DBTX) echo.HandlerFunc {
	return func(c echo.Context) error {
		title, err := common.RequireFileTitleParam(c, "title")
		if err != nil {
			return err
		}

		pages, err := db.New(dbc).PagesUsingFile(c.Request().Context(), title)
		if err != nil {
			slog.Error("failed to load file usage", "title", title, "error", err)
			return common.ErrInternal("failed to load file usage")
		}
		return c.JSON(200, map[string]any{"title": title, "pages": pages})
	}
}
