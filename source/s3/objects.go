// Package s3 exposes an S3 bucket listing as an asynchronous iterator.
//
// Keys are listed with ListObjectsV2, one page per request, and handed out
// one object per readiness check in lexicographic key order.
package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/logger"
)

// Object is the listing metadata of one key.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

func objectFrom(o types.Object) Object {
	obj := Object{
		Key:  aws.ToString(o.Key),
		Size: aws.ToInt64(o.Size),
		ETag: aws.ToString(o.ETag),
	}
	if o.LastModified != nil {
		obj.LastModified = *o.LastModified
	}
	return obj
}

// ObjectPuller pages through a bucket listing. It implements
// async.Puller[Object].
type ObjectPuller struct {
	pages *awss3.ListObjectsV2Paginator
	page  int
	buf   []Object
}

var _ async.Puller[Object] = (*ObjectPuller)(nil)

// NewObjectPuller lists cfg.Bucket through client.
func NewObjectPuller(client awss3.ListObjectsV2APIClient, cfg Config) *ObjectPuller {
	input := &awss3.ListObjectsV2Input{Bucket: aws.String(cfg.Bucket)}
	if cfg.Prefix != "" {
		input.Prefix = aws.String(cfg.Prefix)
	}
	if cfg.StartAfter != "" {
		input.StartAfter = aws.String(cfg.StartAfter)
	}
	if cfg.PageSize > 0 {
		input.MaxKeys = aws.Int32(cfg.PageSize)
	}
	return &ObjectPuller{pages: awss3.NewListObjectsV2Paginator(client, input)}
}

// Next returns the next listed object, requesting pages as needed. Empty
// pages are skipped.
func (p *ObjectPuller) Next(ctx context.Context) (Object, bool, error) {
	for len(p.buf) == 0 {
		if !p.pages.HasMorePages() {
			return Object{}, false, nil
		}
		out, err := p.pages.NextPage(ctx)
		if err != nil {
			return Object{}, false, fmt.Errorf("s3: list page %d: %w", p.page+1, err)
		}
		p.page++
		for _, o := range out.Contents {
			p.buf = append(p.buf, objectFrom(o))
		}
	}
	obj := p.buf[0]
	p.buf = p.buf[1:]
	return obj, true, nil
}

// Pages returns the number of list requests made so far.
func (p *ObjectPuller) Pages() int { return p.page }

// Close does nothing; the client holds no per-listing resources.
func (p *ObjectPuller) Close() error { return nil }

// NewClient builds an S3 client from cfg and the default AWS credential
// chain. Static keys in cfg take precedence over the chain.
func NewClient(ctx context.Context, cfg Config) (*awss3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
	}), nil
}

// Open returns an iterator over the objects in cfg.Bucket under cfg.Prefix.
func Open(ctx context.Context, cfg Config, log *logger.Logger, opts ...async.FetchOption) (*async.FetchIterator[Object], error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.WithComponent("s3.list").Info("listing bucket", logger.Fields(
		"bucket", cfg.Bucket,
		"prefix", cfg.Prefix,
	))
	opts = append([]async.FetchOption{async.WithFetchLogger(log)}, opts...)
	return async.FromPuller[Object](ctx, NewObjectPuller(client, cfg), opts...), nil
}
