package main

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vstate/internal/config"
	"github.com/vango-dev/vstate/internal/errors"
	"github.com/vango-dev/vstate/pkg/storage"
)

// openBackend builds the adapter named by cfg.Storage.Backend. The closer
// is nil for backends without resources to release.
func openBackend(_ context.Context, cfg *config.Config) (storage.Adapter, io.Closer, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.Default(), nil, nil

	case "file":
		dir := cfg.ResolvePath(cfg.Storage.Dir)
		ext := "." + cfg.Codec().Name()
		a, err := storage.NewFileAdapter(dir, storage.WithExtension(ext))
		if err != nil {
			return nil, nil, errors.New("E200").WithDetail("file backend at " + dir).Wrap(err)
		}
		return a, nil, nil

	case "sqlite":
		path := cfg.ResolvePath(cfg.Storage.Path)
		a, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, nil, errors.New("E200").WithDetail("sqlite backend at " + path).Wrap(err)
		}
		return a, a, nil

	case "s3":
		a := storage.NewS3Adapter(newS3Client(cfg), cfg.Storage.Bucket, cfg.Storage.Prefix)
		if cfg.Codec().Name() == "yaml" {
			a.WithContentType("application/yaml")
		}
		return a, nil, nil
	}

	return nil, nil, errors.New("E102").WithDetailf("unknown storage backend %q", cfg.Storage.Backend)
}

// newS3Client builds a client from the standard AWS_* environment
// credentials and the configured region and endpoint.
func newS3Client(cfg *config.Config) *s3.Client {
	region := cfg.Storage.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	creds := aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}, nil
	}))

	return s3.New(s3.Options{
		Region:      region,
		Credentials: creds,
	}, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
}
