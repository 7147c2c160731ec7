package filerepo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"thirdcoast.systems/h5video/pkg/videotag"
)

type S3Config struct {
	Endpoint       string
	PublicEndpoint string // Used for file URLs; falls back to Endpoint if empty
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	Prefix         string
}

// S3Repository resolves titles to objects in a bucket. Objects are addressed
// path-style so the URLs work with S3-compatible stores.
type S3Repository struct {
	client         s3.HeadObjectAPIClient
	bucket         string
	prefix         string
	publicEndpoint string
}

func NewS3Repository(ctx context.Context, cfg S3Config) (*S3Repository, error) {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return NewS3RepositoryWithClient(client, cfg), nil
}

// NewS3RepositoryWithClient uses an existing client.
func NewS3RepositoryWithClient(client s3.HeadObjectAPIClient, cfg S3Config) *S3Repository {
	public := cfg.PublicEndpoint
	if public == "" {
		public = cfg.Endpoint
	}
	return &S3Repository{
		client:         client,
		bucket:         cfg.Bucket,
		prefix:         cfg.Prefix,
		publicEndpoint: strings.TrimRight(public, "/"),
	}
}

func (r *S3Repository) FindFile(ctx context.Context, name string) (videotag.File, error) {
	title, err := NormalizeTitle(name)
	if err != nil {
		return nil, err
	}
	key := r.prefix + title

	out, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("object %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("head object %q: %w", key, err)
	}

	return &MediaFile{
		Title:    title,
		URL:      r.objectURL(key),
		MIMEType: aws.ToString(out.ContentType),
		Size:     aws.ToInt64(out.ContentLength),
	}, nil
}

func (r *S3Repository) objectURL(key string) string {
	return r.publicEndpoint + "/" + url.PathEscape(r.bucket) + "/" + escapePath(key)
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
