package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// KEYS
// ============================================================================

func TestCleanKey(t *testing.T) {
	for in, want := range map[string]string{
		"flor_img_white.png": "flor_img_white.png",
		"/img/./a.png":       "img/a.png",
		" img//b.png ":       "img/b.png",
		"img/../florida.png": "florida.png",
	} {
		got, err := CleanKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "/", "..", "../etc/passwd", "a/../../b"} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestContentTypeAndLink(t *testing.T) {
	assert.Equal(t, "image/png", ContentType(KeyTattooMask))
	assert.True(t, strings.HasPrefix(ContentType(KeyTattooTopicsUI), "text/html"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
	assert.Equal(t, "/artifacts/florida_text_5.png", Link(KeyChargeMask))
}

// ============================================================================
// STORES
// ============================================================================

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Head(ctx, KeyChargeMask)
	require.NoError(t, err)
	assert.Equal(t, KeyChargeMask, info.Key)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, Link(KeyChargeMask), info.URL)

	_, body, err := s.Get(ctx, KeyChargeMask)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "png", string(data))

	_, err = s.Head(ctx, "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Get(ctx, "../secret")
	assert.ErrorIs(t, err, ErrInvalidKey)

	list, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, KeyChargeMask, list[0].Key)
	assert.Equal(t, KeyTattooTopicsUI, list[1].Key)

	list, err = s.List(ctx, "tattoo")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestFSStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, KeyChargeMask), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, KeyTattooTopicsUI), []byte("<html></html>"), 0o644))

	s, err := NewFSStore(root)
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	exerciseStore(t, s)
}

func TestFSStoreMissingRoot(t *testing.T) {
	_, err := NewFSStore(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put(KeyChargeMask, []byte("png")))
	require.NoError(t, s.Put(KeyTattooTopicsUI, []byte("<html></html>")))
	assert.ErrorIs(t, s.Put("..", nil), ErrInvalidKey)
	exerciseStore(t, s)
}

func TestRestrictHidesDataFiles(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Put(KeyTattooMask, []byte("png")))
	require.NoError(t, mem.Put(KeyTattooTopicsUI, []byte("<html></html>")))
	require.NoError(t, mem.Put("offense_inmate.parquet", []byte("PAR1")))
	require.NoError(t, mem.Put("ts_charges.csv", []byte("charge,year")))
	require.NoError(t, mem.Put("inkdash.db", []byte("SQLite")))

	s := Restrict(mem)
	assert.Equal(t, DriverMemory, s.Driver())
	assert.Same(t, s, Restrict(s))

	list, err := s.List(ctx, "")
	require.NoError(t, err)
	keys := make([]string, len(list))
	for i, info := range list {
		keys[i] = info.Key
	}
	assert.Equal(t, []string{KeyTattooMask, KeyTattooTopicsUI}, keys)

	for _, key := range []string{"offense_inmate.parquet", "ts_charges.csv", "inkdash.db"} {
		_, _, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, key)
		_, err = s.Head(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}

	_, body, err := s.Get(ctx, KeyTattooMask)
	require.NoError(t, err)
	require.NoError(t, body.Close())
}

func TestServable(t *testing.T) {
	assert.True(t, Servable(KeyChargeMask))
	assert.True(t, Servable("clouds/Tattoos.PNG"))
	assert.True(t, Servable(KeyTattooTopicsUI))
	assert.False(t, Servable("tattoos.parquet"))
	assert.False(t, Servable("tattoos"))
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	s, err = Open(context.Background(), Options{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	s, err = Open(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), Options{Driver: "ftp"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Driver: DriverS3})
	assert.Error(t, err)
}

// ============================================================================
// S3 STORE
// ============================================================================

type fakeS3 struct {
	objects  map[string]string
	modified time.Time
	lastKey  string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(body))), LastModified: aws.Time(f.modified)}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("image/png"),
		LastModified:  aws.Time(f.modified),
	}, nil
}

// ListObjectsV2 returns one object per page to exercise pagination.
func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sortStrings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	if start >= len(keys) {
		return &s3.ListObjectsV2Output{}, nil
	}
	out := &s3.ListObjectsV2Output{
		Contents: []types.Object{{
			Key:          aws.String(keys[start]),
			Size:         aws.Int64(int64(len(f.objects[keys[start]]))),
			LastModified: aws.Time(f.modified),
		}},
	}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	}
	return out, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]string{
			"dash/" + KeyChargeMask:     "png",
			"dash/" + KeyTattooTopicsUI: "<html></html>",
			"other/" + KeyTattooMask:    "xx",
		},
		modified: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s := newS3Store(fake, "bucket", "dash")
	assert.Equal(t, DriverS3, s.Driver())
	exerciseStore(t, s)

	_, err := s.Head(context.Background(), KeyChargeMask)
	require.NoError(t, err)
	assert.Equal(t, "dash/"+KeyChargeMask, fake.lastKey)

	_, _, err = s.Get(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
