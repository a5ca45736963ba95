package s3

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/asynciter/async"
	"github.com/kbukum/asynciter/async/asynctest"
	"github.com/kbukum/asynciter/logger"
)

// fakeLister serves pages of keys. Continuation tokens are page indexes.
type fakeLister struct {
	pages  [][]string
	err    error
	inputs []awss3.ListObjectsV2Input
}

func (f *fakeLister) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, *in)
	if f.err != nil {
		return nil, f.err
	}
	i := 0
	if in.ContinuationToken != nil {
		i, _ = strconv.Atoi(*in.ContinuationToken)
	}
	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(i+1 < len(f.pages))}
	if i < len(f.pages) {
		for _, k := range f.pages[i] {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(k)))})
		}
	}
	if i+1 < len(f.pages) {
		out.NextContinuationToken = aws.String(strconv.Itoa(i + 1))
	}
	return out, nil
}

func paged(items []int, size int) [][]string {
	pages := [][]string{{}}
	for _, v := range items {
		last := len(pages) - 1
		if len(pages[last]) == size {
			pages = append(pages, nil)
			last++
		}
		pages[last] = append(pages[last], strconv.Itoa(v))
	}
	return pages
}

func keyAsInt(o Object) (int, error) { return strconv.Atoi(o.Key) }

func TestConformance(t *testing.T) {
	build := func(l awss3.ListObjectsV2APIClient) async.Iterator[int] {
		p := async.MapPuller[Object, int](NewObjectPuller(l, Config{Bucket: "b"}), keyAsInt)
		return async.FromPuller[int](context.Background(), p, async.WithFetchLogger(logger.Nop()))
	}
	asynctest.Run(t, func(items []int) async.Iterator[int] {
		return build(&fakeLister{pages: paged(items, 3)})
	}, asynctest.Options{
		EnforceSequencing: true,
		ExhaustOnCancel:   true,
		Failing: func(err error) async.Iterator[int] {
			return build(&fakeLister{err: err})
		},
	})
}

func TestObjectPuller_FollowsContinuationTokens(t *testing.T) {
	l := &fakeLister{pages: [][]string{{"a/1", "a/2"}, {}, {"a/3"}}}
	p := NewObjectPuller(l, Config{Bucket: "media", Prefix: "a/", PageSize: 2})
	it := async.FromPuller[Object](context.Background(), p, async.WithFetchLogger(logger.Nop()))

	got, err := async.Collect(context.Background(), it)
	require.NoError(t, err)
	keys := make([]string, 0, len(got))
	for _, o := range got {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, keys)
	assert.Equal(t, int64(3), got[0].Size)
	assert.Equal(t, 3, p.Pages(), "the empty middle page is requested and skipped")

	require.Len(t, l.inputs, 3)
	assert.Equal(t, "media", aws.ToString(l.inputs[0].Bucket))
	assert.Equal(t, "a/", aws.ToString(l.inputs[0].Prefix))
	assert.Equal(t, int32(2), aws.ToInt32(l.inputs[0].MaxKeys))
	assert.Nil(t, l.inputs[0].ContinuationToken)
	assert.Equal(t, "2", aws.ToString(l.inputs[2].ContinuationToken))
}

func TestObjectPuller_PagesOnDemand(t *testing.T) {
	l := &fakeLister{pages: [][]string{{"k1", "k2"}, {"k3"}}}
	it := async.FromPuller[Object](context.Background(), NewObjectPuller(l, Config{Bucket: "b"}),
		async.WithFetchLogger(logger.Nop()))

	ok, err := it.HasNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = it.Next()
	require.NoError(t, err)
	it.Cancel()

	assert.Len(t, l.inputs, 1, "later pages are never requested after cancel")
}

func TestObjectPuller_ListError(t *testing.T) {
	denied := errors.New("AccessDenied")
	it := async.FromPuller[Object](context.Background(), NewObjectPuller(&fakeLister{err: denied}, Config{Bucket: "b"}),
		async.WithFetchLogger(logger.Nop()))

	_, err := it.HasNext(context.Background())
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "list page 1")
}

func TestConfig(t *testing.T) {
	cfg := Config{Bucket: "media"}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultRegion, cfg.Region)
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"no bucket", func(c *Config) { c.Bucket = "" }, "bucket: is required"},
		{"page too large", func(c *Config) { c.PageSize = 5000 }, "page_size: must be at most 1000"},
		{"bad endpoint", func(c *Config) { c.Endpoint = "not a url" }, "endpoint"},
		{"key without secret", func(c *Config) { c.AccessKey = "AKIA" }, "secret_key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := cfg
			tc.mod(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewClient_CustomEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	cfg := Config{Bucket: "b", Endpoint: "http://localhost:9000", AccessKey: "minio", SecretKey: "minio123"}
	cfg.ApplyDefaults()

	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	opts := client.Options()
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.Equal(t, DefaultRegion, opts.Region)
}
