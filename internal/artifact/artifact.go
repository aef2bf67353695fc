// Package artifact uploads generated dump scripts to an S3-compatible
// object store. Upload is optional: a dump run without an artifact section
// in the config never touches this package.
package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sin5ddd/sqlew/internal/logger"
)

// Config holds the object-store connection settings.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`

	// Prefix is prepended to every object key. Defaults to "dumps".
	Prefix string `yaml:"prefix"`
}

// Store uploads dump artifacts to one bucket.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	client *miniogo.Client
	cfg    Config
	log    *logger.Logger
}

// New connects to the object store and validates the connection before
// returning.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("artifact: bucket is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "dumps"
	}
	if log == nil {
		log = logger.Nop()
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: create client: %w", err)
	}

	s := &Store{client: client, cfg: cfg, log: log}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping verifies the bucket is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("artifact: ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("artifact: bucket %q does not exist", s.cfg.Bucket)
	}
	return nil
}

// Upload stores one dump script and returns the object key. Keys are
// <prefix>/<name>-<UTC timestamp>.sql so repeated uploads never collide.
func (s *Store) Upload(ctx context.Context, name, script string) (string, error) {
	key := s.key(name, time.Now().UTC())

	reader := strings.NewReader(script)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, reader, int64(reader.Len()),
		miniogo.PutObjectOptions{ContentType: "application/sql"})
	if err != nil {
		return "", fmt.Errorf("artifact: upload %s: %w", key, err)
	}

	s.log.With().Str("bucket", s.cfg.Bucket).Str("key", key).Logger().
		Info("dump uploaded")
	return key, nil
}

func (s *Store) key(name string, at time.Time) string {
	return fmt.Sprintf("%s/%s-%s.sql", s.cfg.Prefix, name, at.Format("20060102T150405Z"))
}
