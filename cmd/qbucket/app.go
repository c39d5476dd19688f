package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/blobstore"
	miniostore "github.com/hupe1980/qbucket/blobstore/minio"
	s3store "github.com/hupe1980/qbucket/blobstore/s3"
	"github.com/hupe1980/qbucket/codec"
	"github.com/hupe1980/qbucket/source"
	"github.com/hupe1980/qbucket/source/memory"
	"github.com/hupe1980/qbucket/source/sqlsource"
	"github.com/hupe1980/qbucket/source/sqlsource/duckdb"
	"github.com/hupe1980/qbucket/source/sqlsource/postgres"
	"github.com/hupe1980/qbucket/source/sqlsource/sqlite"
)

func (a *app) logger() *qbucket.Logger {
	level, _ := a.cfg.Log.SlogLevel()
	if a.cfg.Log.Format == "json" {
		return qbucket.NewJSONLogger(level)
	}
	return qbucket.NewTextLogger(level)
}

// options translates the index config into library options.
func (a *app) options(extra ...qbucket.Option) ([]qbucket.Option, error) {
	c, err := codec.Lookup(a.cfg.Index.Codec)
	if err != nil {
		return nil, err
	}
	comp, err := codec.ParseCompression(a.cfg.Index.Compression)
	if err != nil {
		return nil, err
	}

	opts := []qbucket.Option{
		qbucket.WithQuantileGap(a.cfg.Index.QuantileGap),
		qbucket.WithMaxDepth(a.cfg.Index.MaxDepth),
		qbucket.WithWorkers(a.cfg.Index.Workers),
		qbucket.WithThrottle(a.cfg.Source.RateLimit, a.cfg.Source.Burst),
		qbucket.WithCodec(c),
		qbucket.WithCompression(comp),
		qbucket.WithLogger(a.logger()),
	}
	return append(opts, extra...), nil
}

// closableSource is a catalog source that may hold a connection.
type closableSource interface {
	source.Catalog
	Close() error
}

type nopCloser struct {
	source.Catalog
}

func (nopCloser) Close() error { return nil }

func (a *app) openSource(ctx context.Context) (closableSource, error) {
	sc := a.cfg.Source
	if len(sc.Numeric) == 0 {
		return nil, fmt.Errorf("source.numeric must name at least one attribute")
	}
	sqlOpts := []func(*sqlsource.Options){sqlsource.WithLogger(a.logger().Logger)}

	if sc.Kind == "memory" {
		f, err := os.Open(sc.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		records, err := memory.ReadRecords(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sc.Path, err)
		}
		var memOpts []func(*memory.Options)
		if sc.Predicate != "" {
			memOpts = append(memOpts, memory.WithPredicate(sc.Predicate))
		}
		src, err := memory.New(records, sc.Categorical, sc.Numeric, memOpts...)
		if err != nil {
			return nil, err
		}
		return nopCloser{src}, nil
	}

	var (
		src *sqlsource.Source
		err error
	)
	switch sc.Kind {
	case "duckdb":
		src, err = duckdb.Open(sc.Path, sc.Table, sc.Categorical, sc.Numeric, sqlOpts...)
	case "sqlite":
		src, err = sqlite.Open(sc.Path, sc.Table, sc.Categorical, sc.Numeric, sqlOpts...)
	case "postgres":
		src, err = postgres.Open(ctx, sc.DSN, sc.Table, sc.Categorical, sc.Numeric, sqlOpts...)
	default:
		return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (a *app) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	st := a.cfg.Store

	var store blobstore.BlobStore
	switch st.Kind {
	case "local":
		store = blobstore.NewLocalStore(st.Path)
	case "minio":
		client, err := minio.New(st.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(st.AccessKey, st.SecretKey, ""),
			Secure: st.UseSSL,
			Region: st.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		store = miniostore.NewStore(client, st.Bucket, st.Prefix)
	case "s3":
		s3Opts := []func(*s3store.Options){s3store.WithPrefix(st.Prefix)}
		if st.Region != "" {
			s3Opts = append(s3Opts, s3store.WithRegion(st.Region))
		}
		if st.Endpoint != "" {
			s3Opts = append(s3Opts, s3store.WithEndpoint(st.Endpoint))
		}
		s, err := s3store.New(ctx, st.Bucket, s3Opts...)
		if err != nil {
			return nil, err
		}
		store = s

		if st.CommitTable != "" {
			var loadOpts []func(*awsconfig.LoadOptions) error
			if st.Region != "" {
				loadOpts = append(loadOpts, awsconfig.WithRegion(st.Region))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				return nil, fmt.Errorf("load aws config: %w", err)
			}
			baseURI := "s3://" + st.Bucket + "/" + st.Prefix
			store = s3store.NewCommitStore(s, dynamodb.NewFromConfig(awsCfg), st.CommitTable, baseURI)
		}
	default:
		return nil, fmt.Errorf("unknown store kind %q", st.Kind)
	}

	if st.CacheSize > 0 {
		store = blobstore.NewCachingStore(store, st.CacheSize)
	}
	return store, nil
}

func (a *app) openIndex(ctx context.Context, version uint64, extra ...qbucket.Option) (*qbucket.Index, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.options(extra...)
	if err != nil {
		return nil, err
	}
	return qbucket.OpenVersion(ctx, store, version, opts...)
}
