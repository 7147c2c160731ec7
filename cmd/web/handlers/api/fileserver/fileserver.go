// Package fileserver serves uploaded media with caching headers.
package fileserver

import (
	"crypto/sha256"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
)

// ETagMode determines how ETags are computed.
type ETagMode int

const (
	// ETagWeakStat uses file size and modtime for a weak ETag.
	ETagWeakStat ETagMode = iota
	// ETagStrongSHA256 computes a SHA256 hash of the file content.
	ETagStrongSHA256
)

// fileCacheEntry stores cached ETag info.
type fileCacheEntry struct {
	size    int64
	modTime time.Time
	mode    ETagMode
	etag    string
}

// FileCache memoizes ETags per file name.
// Entries are invalidated automatically when file size or modtime changes.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]fileCacheEntry
}

func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]fileCacheEntry)}
}

// ETag computes or retrieves a cached ETag for the given file.
func (c *FileCache) ETag(fsys afero.Fs, name string, info os.FileInfo, mode ETagMode) (string, error) {
	// Fast path: cached and still valid
	c.mu.RLock()
	if e, ok := c.entries[name]; ok {
		if e.size == info.Size() && e.modTime.Equal(info.ModTime()) && e.mode == mode {
			c.mu.RUnlock()
			return e.etag, nil
		}
	}
	c.mu.RUnlock()

	etag, err := computeETag(fsys, name, info, mode)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[name] = fileCacheEntry{
		size:    info.Size(),
		modTime: info.ModTime(),
		mode:    mode,
		etag:    etag,
	}
	c.mu.Unlock()

	return etag, nil
}

func computeETag(fsys afero.Fs, name string, info os.FileInfo, mode ETagMode) (string, error) {
	switch mode {
	case ETagWeakStat:
		return fmt.Sprintf(`W/"%x-%x"`, info.ModTime().Unix(), info.Size()), nil
	case ETagStrongSHA256:
		f, err := fsys.Open(name)
		if err != nil {
			return "", err
		}
		defer f.Close()
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return fmt.Sprintf(`"%x"`, h.Sum(nil)), nil
	default:
		return "", fmt.Errorf("unknown etag mode: %d", mode)
	}
}

// FileServer serves files of one filesystem with caching support.
type FileServer struct {
	fs    afero.Fs
	cache *FileCache
}

func NewFileServer(fsys afero.Fs) *FileServer {
	return &FileServer{fs: fsys, cache: NewFileCache()}
}

// HandleMedia serves the file named by the wildcard route parameter.
func (fs *FileServer) HandleMedia(cacheControl string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := path.Clean("/" + c.Param("*"))
		if name == "/" || strings.Contains(name, "\\") {
			return echo.ErrNotFound
		}
		return fs.ServeFileWithCache(c, name, "", cacheControl, ETagWeakStat)
	}
}

// ServeFileWithCache serves a file with caching headers and conditional request support.
// An empty contentType is derived from the file extension.
func (fs *FileServer) ServeFileWithCache(c echo.Context, name string, contentType string, cacheControl string, etagMode ETagMode) error {
	info, err := fs.fs.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return echo.ErrNotFound
	}

	etag := ""
	if fs.cache != nil {
		if v, err := fs.cache.ETag(fs.fs, name, info, etagMode); err == nil {
			etag = v
		}
	}

	// Conditional requests
	if etag != "" {
		if inm := c.Request().Header.Get("If-None-Match"); inm != "" && strings.TrimSpace(inm) == etag {
			return c.NoContent(http.StatusNotModified)
		}
	}
	if ims := c.Request().Header.Get(echo.HeaderIfModifiedSince); ims != "" {
		if t, err := time.Parse(http.TimeFormat, ims); err == nil {
			// Round to seconds (HTTP date resolution)
			if !info.ModTime().After(t.Add(time.Second)) {
				return c.NoContent(http.StatusNotModified)
			}
		}
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}
	if contentType == "" && strings.EqualFold(path.Ext(name), ".mp4") {
		contentType = "video/mp4"
	}

	c.Response().Header().Set(echo.HeaderCacheControl, cacheControl)
	c.Response().Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	if etag != "" {
		c.Response().Header().Set("ETag", etag)
	}
	if contentType != "" {
		c.Response().Header().Set("Content-Type", contentType)
	}

	f, err := fs.fs.Open(name)
	if err != nil {
		return echo.ErrNotFound
	}
	defer f.Close()

	// http.ServeContent supports Range requests (used by the video player).
	http.ServeContent(c.Response(), c.Request(), path.Base(name), info.ModTime(), f)
	return nil
}
