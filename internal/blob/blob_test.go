package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-pkgs/depmeta/client"
	"github.com/git-pkgs/depmeta/internal/core"
)

var lib = core.Coordinate{Group: "com.example", Name: "lib"}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	_, err := store.Get(ctx, "a/b.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "a/b.json", []byte("one")))
	require.NoError(t, store.Put(ctx, "a/c/d.json", []byte("two")))
	require.NoError(t, store.Put(ctx, "a/b.json", []byte("three")))

	data, err := store.Get(ctx, "a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))

	keys, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.json", "a/c/d.json"}, keys)

	keys, err = store.List(ctx, "missing/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRepositoryResolveAndPublish(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo := NewRepository("local", NewLocalStore(root), nil)

	_, err := repo.Resolve(ctx, lib.Record("1.0.0"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.Publish(ctx, lib.Record("1.0.0"), []byte(`{"formatVersion":2}`)))

	onDisk, err := os.ReadFile(filepath.Join(root, "com", "example", "lib", "1.0.0", "lib-1.0.0-metadata.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"formatVersion":2}`, string(onDisk))

	data, err := repo.Resolve(ctx, lib.Record("1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, `{"formatVersion":2}`, string(data))
}

func TestRepositoryListVersionsFromDirectories(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	for _, key := range []string{
		"com/example/lib/1.10.0/lib-1.10.0.jar",
		"com/example/lib/1.2.0/lib-1.2.0.pom",
		"com/example/lib/1.2.0/lib-1.2.0-metadata.json",
		"com/example/lib/1.0.0-SNAPSHOT/lib-1.0.0-SNAPSHOT.jar",
		"com/example/lib-extra/9.9/lib-extra-9.9.jar",
		"com/example/lib/stray.txt",
	} {
		require.NoError(t, store.Put(ctx, key, []byte("x")))
	}

	versions, err := NewRepository("local", store, nil).ListVersions(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0-SNAPSHOT", "1.2.0", "1.10.0"}, versions)
}

func TestRepositoryListVersionsFromIndex(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "com/example/lib/maven-metadata-local.xml", []byte(
		`<metadata><versioning><versions><version>1.0</version><version>2.0</version></versions></versioning></metadata>`)))
	require.NoError(t, store.Put(ctx, "com/example/lib/3.0/lib-3.0.jar", []byte("x")))

	repo := NewRepository("local", store, nil)
	repo.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	versions, err := repo.ListVersions(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0"}, versions)

	require.NoError(t, repo.Publish(ctx, lib.Record("1.5"), []byte("{}")))
	versions, err = repo.ListVersions(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "1.5", "2.0"}, versions)

	index, err := store.Get(ctx, "com/example/lib/maven-metadata-local.xml")
	require.NoError(t, err)
	meta, err := client.ParseMetadata(index)
	require.NoError(t, err)
	assert.Equal(t, "20240101000000", meta.Versioning.LastUpdated)
}

func TestRepositoryListVersionsUnknown(t *testing.T) {
	versions, err := NewRepository("local", NewLocalStore(t.TempDir()), nil).ListVersions(context.Background(), lib)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

type failingStore struct{ err error }

func (f failingStore) Put(context.Context, string, []byte) error       { return f.err }
func (f failingStore) Get(context.Context, string) ([]byte, error)     { return nil, f.err }
func (f failingStore) List(context.Context, string) ([]string, error) { return nil, f.err }

func TestRepositoryErrorsAreTransportErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository("broken", failingStore{err: errors.New("disk on fire")}, nil)

	var te *core.TransportError
	_, err := repo.Resolve(ctx, lib.Record("1.0"))
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "broken", te.Repository)

	_, err = repo.ListVersions(ctx, lib)
	assert.ErrorAs(t, err, &te)

	err = repo.Publish(ctx, lib.Record("1.0"), []byte("{}"))
	assert.ErrorAs(t, err, &te)
}

func TestLocalPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{"/var/repo", "/var/repo"},
		{"file:///var/repo/", "/var/repo"},
		{"~/.m2/repository", filepath.Join(home, ".m2", "repository")},
		{"target/../repo", "repo"},
	}
	for _, tt := range tests {
		got, err := LocalPath(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err = LocalPath("")
	assert.Error(t, err)
}

func TestOpenRegisteredSchemes(t *testing.T) {
	dir := t.TempDir()
	repo, err := core.Open(core.RepositorySpec{ID: "local", URL: dir}, core.Options{})
	require.NoError(t, err)
	assert.IsType(t, &Repository{}, repo)

	repo, err = core.Open(core.RepositorySpec{URL: "s3://records/maven2"}, core.Options{
		S3: core.S3Options{Endpoint: "localhost:9000", AccessKey: "key", SecretKey: "secret"},
	})
	require.NoError(t, err)
	r, ok := repo.(*Repository)
	require.True(t, ok)
	store, ok := r.store.(*MinioStore)
	require.True(t, ok)
	assert.Equal(t, "records", store.bucketName)
	assert.Equal(t, "maven2/com/example/x.json", store.objectKey("com/example/x.json"))

	_, err = core.Open(core.RepositorySpec{URL: "s3://records"}, core.Options{})
	assert.Error(t, err, "missing endpoint")
}

func TestNewMinioStoreValidation(t *testing.T) {
	_, err := NewMinioStore(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err, "missing bucket")

	_, err = NewMinioStore(S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "only-key"})
	assert.Error(t, err, "half credentials")

	s, err := NewMinioStore(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "lib.json", s.objectKey("/lib.json"))
	assert.Equal(t, "us-east-1", s.region)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/lib-1.0-metadata.json"))
	assert.Equal(t, "application/xml", contentType("a/maven-metadata.xml"))
	assert.Equal(t, "text/plain", contentType("a/lib.json.sha1"))
	assert.Equal(t, "application/octet-stream", contentType("a/lib.jar"))
}

func TestChainCacheLeavesLocalIndex(t *testing.T) {
	ctx := context.Background()
	localStore := NewLocalStore(t.TempDir())
	indexKey := "com/example/lib/maven-metadata-local.xml"
	index := []byte(`<metadata><versioning><versions><version>1.0</version></versions></versioning></metadata>`)
	require.NoError(t, localStore.Put(ctx, indexKey, index))

	remote := NewRepository("remote", NewLocalStore(t.TempDir()), nil)
	require.NoError(t, remote.Publish(ctx, lib.Record("2.0"), []byte(`{"formatVersion":2}`)))

	local := NewRepository("local", localStore, nil)
	chain := core.NewChain(local, []core.Repository{remote}, nil)
	data, err := chain.Resolve(ctx, lib.Record("2.0"))
	require.NoError(t, err)
	assert.Equal(t, `{"formatVersion":2}`, string(data))

	cached, err := local.Resolve(ctx, lib.Record("2.0"))
	require.NoError(t, err)
	assert.Equal(t, data, cached)

	after, err := localStore.Get(ctx, indexKey)
	require.NoError(t, err)
	assert.Equal(t, string(index), string(after))

	versions, err := local.ListVersions(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0"}, versions)
}
