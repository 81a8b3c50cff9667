package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/depmeta/client"
	"github.com/git-pkgs/depmeta/internal/core"
)

// Resolver determines download URLs for artifacts in one Maven2 repository.
// Release versions map straight onto the layout; -SNAPSHOT versions consult the
// version directory's maven-metadata.xml for the latest timestamped build.
type Resolver struct {
	fetcher FetcherInterface
	layout  *client.Maven2
}

// NewResolver creates a resolver for the repository rooted at baseURL.
func NewResolver(f FetcherInterface, baseURL string) *Resolver {
	return &Resolver{
		fetcher: f,
		layout:  client.NewMaven2(baseURL),
	}
}

// Layout returns the URL layout used by the resolver.
func (r *Resolver) Layout() *client.Maven2 {
	return r.layout
}

// ArtifactInfo contains information about a downloadable artifact.
type ArtifactInfo struct {
	URL      string
	Filename string
	// Snapshot is the timestamped version a -SNAPSHOT resolved to, if any.
	Snapshot string
}

// Resolve returns the download URL and filename for coord.
func (r *Resolver) Resolve(ctx context.Context, coord core.Coordinate) (*ArtifactInfo, error) {
	plain := r.layout.Artifact(coord)
	if !coord.IsSnapshot() {
		return &ArtifactInfo{URL: plain, Filename: filenameFromURL(plain)}, nil
	}

	data, err := ReadAll(ctx, r.fetcher, r.layout.VersionMetadata(coord))
	if errors.Is(err, ErrNotFound) {
		// Non-unique snapshot deployment.
		return &ArtifactInfo{URL: plain, Filename: filenameFromURL(plain)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot metadata: %w", err)
	}

	meta, err := client.ParseMetadata(data)
	if err != nil {
		return nil, err
	}

	extension := coord.Type
	if extension == "" {
		extension = "jar"
	}
	value, ok := meta.SnapshotValue(coord.Classifier, extension)
	if !ok {
		return &ArtifactInfo{URL: plain, Filename: filenameFromURL(plain)}, nil
	}

	url := r.layout.SnapshotArtifact(coord, value)
	return &ArtifactInfo{
		URL:      url,
		Filename: filenameFromURL(url),
		Snapshot: value,
	}, nil
}

func filenameFromURL(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
