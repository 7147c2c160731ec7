// Package application wires configuration into the runtime collaborators
// shared by the binaries.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"thirdcoast.systems/h5video/internal/config"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/internal/filerepo"
	"thirdcoast.systems/h5video/internal/messages"
	"thirdcoast.systems/h5video/pkg/videotag"
)

// Files bundles the configured repository with its optional capabilities.
type Files struct {
	videotag.FileRepository

	// Lister is nil for backends that cannot enumerate files.
	Lister interface {
		List(ctx context.Context) ([]*filerepo.MediaFile, error)
	}
	// Registrar is set for backends that record files in the database.
	Registrar interface {
		Register(ctx context.Context, key string) (*filerepo.MediaFile, error)
	}
	// Local serves the upload directory under /media/. It is set for the
	// local and postgres backends.
	Local *filerepo.LocalRepository
}

// NewFiles builds the file repository selected by conf.FileBackend. dbc is
// required for the postgres backend only.
func NewFiles(ctx context.Context, conf config.Config, fsys afero.Fs, dbc db.DBTX) (*Files, error) {
	switch conf.FileBackend {
	case config.BackendPostgres:
		if dbc == nil {
			return nil, fmt.Errorf("postgres file backend requires a database")
		}
		local, err := newLocal(conf, fsys)
		if err != nil {
			return nil, err
		}
		repo := filerepo.NewPostgresRepository(dbc, local.Fs(), conf.PublicBaseURL)
		return &Files{FileRepository: repo, Lister: repo, Registrar: repo, Local: local}, nil
	case config.BackendS3:
		repo, err := filerepo.NewS3Repository(ctx, filerepo.S3Config{
			Endpoint:       conf.S3.Endpoint,
			PublicEndpoint: conf.S3.PublicEndpoint,
			Bucket:         conf.S3.Bucket,
			AccessKey:      conf.S3.AccessKey,
			SecretKey:      conf.S3.SecretKey,
			Region:         conf.S3.Region,
			Prefix:         conf.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return &Files{FileRepository: repo}, nil
	case config.BackendLocal, "":
		repo, err := newLocal(conf, fsys)
		if err != nil {
			return nil, err
		}
		return &Files{FileRepository: repo, Lister: repo, Local: repo}, nil
	default:
		return nil, fmt.Errorf("unknown file backend %q", conf.FileBackend)
	}
}

func newLocal(conf config.Config, fsys afero.Fs) (*filerepo.LocalRepository, error) {
	if err := fsys.MkdirAll(conf.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return filerepo.NewLocalRepository(fsys, conf.UploadDir, conf.PublicBaseURL), nil
}

// NewCatalog builds the message catalog with the configured overrides.
func NewCatalog(conf config.Config) (*messages.Catalog, error) {
	overrides, err := messages.ParseOverrides(conf.MessageOverrides)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		slog.Info("message overrides loaded", "count", len(overrides))
	}
	return messages.NewCatalog(overrides), nil
}
