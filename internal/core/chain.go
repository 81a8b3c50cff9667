package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ExistenceChecker is implemented by repositories that can tell whether an
// artifact is present without transferring it.
type ExistenceChecker interface {
	Exists(ctx context.Context, coord Coordinate) (bool, error)
}

// Cacher is implemented by local repositories that can keep a copy of a
// remote artifact without recording its version as installed.
type Cacher interface {
	Cache(ctx context.Context, coord Coordinate, data []byte) error
}

// Exists reports whether repo holds the artifact at coord, falling back to
// Resolve when repo is not an ExistenceChecker.
func Exists(ctx context.Context, repo Repository, coord Coordinate) (bool, error) {
	if ec, ok := repo.(ExistenceChecker); ok {
		return ec.Exists(ctx, coord)
	}
	_, err := repo.Resolve(ctx, coord)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, err
}

// Chain is a Repository that consults a local cache first and then each remote
// in order. Records found remotely are written through to the local cache,
// with Cache when the local repository is a Cacher.
type Chain struct {
	local   Repository
	remotes []Repository
	logger  *slog.Logger
}

// NewChain creates a chain. local may be nil.
func NewChain(local Repository, remotes []Repository, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{local: local, remotes: remotes, logger: logger}
}

func (c *Chain) ID() string {
	return "chain"
}

func (c *Chain) members() []Repository {
	members := make([]Repository, 0, len(c.remotes)+1)
	if c.local != nil {
		members = append(members, c.local)
	}
	return append(members, c.remotes...)
}

// Resolve returns the first hit. NotFound from one member moves on to the next;
// any other error aborts the lookup.
func (c *Chain) Resolve(ctx context.Context, coord Coordinate) ([]byte, error) {
	for _, repo := range c.members() {
		data, err := repo.Resolve(ctx, coord)
		if err == nil {
			if repo != c.local {
				c.cache(ctx, coord, repo, data)
			}
			return data, nil
		}
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("artifact not found",
				slog.String("artifact", coord.String()),
				slog.String("repository", repo.ID()))
			continue
		}
		return nil, asTransportError(err, coord, repo.ID())
	}
	return nil, &NotFoundError{Coordinate: coord}
}

func (c *Chain) cache(ctx context.Context, coord Coordinate, from Repository, data []byte) {
	if c.local == nil {
		return
	}
	var err error
	if cacher, ok := c.local.(Cacher); ok {
		err = cacher.Cache(ctx, coord, data)
	} else {
		err = c.local.Publish(ctx, coord, data)
	}
	if err != nil {
		c.logger.Warn("failed to cache artifact locally",
			slog.String("artifact", coord.String()),
			slog.String("repository", from.ID()),
			slog.String("error", err.Error()))
	}
}

// Exists asks each member in order. Nothing is downloaded or cached.
func (c *Chain) Exists(ctx context.Context, coord Coordinate) (bool, error) {
	for _, repo := range c.members() {
		ok, err := Exists(ctx, repo, coord)
		if err != nil {
			return false, asTransportError(err, coord, repo.ID())
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ListVersions merges the version listings of every member, first occurrence wins.
func (c *Chain) ListVersions(ctx context.Context, coord Coordinate) ([]string, error) {
	seen := make(map[string]bool)
	var versions []string
	for _, repo := range c.members() {
		vs, err := repo.ListVersions(ctx, coord)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, asTransportError(err, coord, repo.ID())
		}
		for _, v := range vs {
			if !seen[v] {
				seen[v] = true
				versions = append(versions, v)
			}
		}
	}
	return versions, nil
}

// Publish installs data into the local cache.
func (c *Chain) Publish(ctx context.Context, coord Coordinate, data []byte) error {
	if c.local == nil {
		return fmt.Errorf("chain has no local repository to install %s into", coord)
	}
	return c.local.Publish(ctx, coord, data)
}

func asTransportError(err error, coord Coordinate, repo string) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Coordinate: coord, Repository: repo, Err: err}
}
