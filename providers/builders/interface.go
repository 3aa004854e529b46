package builders

import (
	"context"
	"errors"
)

var (
	ErrMissingBuildFile = errors.New("missing build file")
	ErrInvalidBuildFile = errors.New("invalid build file")
	ErrImageNotBuilt    = errors.New("image not built")
)

type BuildOptions struct {
	ContextDirectory string
	// BuildFile is relative to ContextDirectory
	BuildFile       string
	Tags            []string
	Labels          map[string]string
	ExcludePatterns []string
}

type BuildResult struct {
	ImageID string
	// Output is the rendered build log
	Output []byte
}

type Builder interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
}
