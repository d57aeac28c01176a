package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hupe1980/celldb/blobstore"
	"github.com/hupe1980/celldb/blobstore/minio"
	"github.com/hupe1980/celldb/blobstore/s3"
)

type storageKind int

const (
	storageLocal storageKind = iota
	storageS3
	storageMinIO
)

// storageTarget is a parsed --storage value.
type storageTarget struct {
	kind   storageKind
	raw    string
	path   string // local directory
	host   string // minio endpoint
	bucket string
	prefix string // always empty or ending in "/"
}

func parseStorage(raw string) (storageTarget, error) {
	if raw == "" {
		return storageTarget{}, fmt.Errorf("no storage configured (use --storage or %s_STORAGE)", envPrefix)
	}

	if !strings.Contains(raw, "://") {
		return storageTarget{kind: storageLocal, raw: raw, path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return storageTarget{}, fmt.Errorf("invalid storage %q: %w", raw, err)
	}

	target := storageTarget{raw: raw}
	rest := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		target.kind = storageLocal
		target.path = u.Path
		if target.path == "" {
			return storageTarget{}, fmt.Errorf("invalid storage %q: empty path", raw)
		}
		return target, nil
	case "s3":
		target.kind = storageS3
		target.bucket = u.Host
	case "minio":
		target.kind = storageMinIO
		target.host = u.Host
		if target.host == "" {
			return storageTarget{}, fmt.Errorf("invalid storage %q: missing host", raw)
		}
		target.bucket, rest, _ = strings.Cut(rest, "/")
	default:
		return storageTarget{}, fmt.Errorf("invalid storage %q: unsupported scheme %q", raw, u.Scheme)
	}

	if target.bucket == "" {
		return storageTarget{}, fmt.Errorf("invalid storage %q: missing bucket", raw)
	}
	if rest != "" {
		target.prefix = rest + "/"
	}
	return target, nil
}

func (a *app) openStorage(ctx context.Context) (blobstore.BlobStore, error) {
	target, err := parseStorage(a.v.GetString("storage"))
	if err != nil {
		return nil, err
	}

	switch target.kind {
	case storageS3:
		return a.openS3(ctx, target)
	case storageMinIO:
		st, err := minio.New(target.host, target.bucket,
			minio.WithPrefix(target.prefix),
			minio.WithSecure(a.v.GetBool("minio-secure")),
			minio.WithRegion(a.v.GetString("region")),
		)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		if a.v.GetString("ddb-table") != "" {
			return nil, fmt.Errorf("--ddb-table requires s3 storage")
		}
		return blobstore.NewLocalStore(target.path), nil
	}
}

func (a *app) openS3(ctx context.Context, target storageTarget) (blobstore.BlobStore, error) {
	region := a.v.GetString("region")

	opts := []s3.Option{s3.WithPrefix(target.prefix)}
	if region != "" {
		opts = append(opts, s3.WithRegion(region))
	}
	if endpoint := a.v.GetString("endpoint"); endpoint != "" {
		opts = append(opts, s3.WithEndpoint(endpoint, true))
	}

	st, err := s3.New(ctx, target.bucket, opts...)
	if err != nil {
		return nil, err
	}

	tableName := a.v.GetString("ddb-table")
	if tableName == "" {
		a.logger.WarnContext(ctx, "s3 storage without --ddb-table: concurrent commits can overwrite each other")
		return st, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewDDBCommitStore(st, dynamodb.NewFromConfig(cfg), tableName, target.raw), nil
}
