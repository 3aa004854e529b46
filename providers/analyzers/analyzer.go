package analyzers

import (
	"context"
	"errors"

	"github.com/ipaas-org/airflow-publisher/model"
)

var (
	ErrMissingBuildFile        = errors.New("build file not found")
	ErrBuildFileOutsideContext = errors.New("build file is outside the build context")
	ErrInexistingContext       = errors.New("inexisting build context directory")
)

type Analyzer interface {
	// inspects the build context before anything touches the engine
	Analyze(ctx context.Context, contextDir, buildFile string) (*model.BuildContextInfo, error)
}
