package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/ipaas-org/airflow-publisher/providers/builders"
	"github.com/sirupsen/logrus"
)

const BuilderKind = "docker"

var _ builders.Builder = new(DockerBuilder)

// DockerAPI is the part of the engine client the builder needs.
type DockerAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
}

type DockerBuilder struct {
	builderVersion string
	cli            DockerAPI
	l              *logrus.Logger
}

func NewDockerBuilder(cli DockerAPI, builderVersion string, l *logrus.Logger) *DockerBuilder {
	return &DockerBuilder{
		builderVersion: builderVersion,
		cli:            cli,
		l:              l,
	}
}

// NewDockerClient creates an engine client from the environment (DOCKER_HOST, ...).
func NewDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

func (b *DockerBuilder) Build(ctx context.Context, opts builders.BuildOptions) (*builders.BuildResult, error) {
	if opts.BuildFile == "" {
		return nil, builders.ErrMissingBuildFile
	}

	//create a build context, a tar of the context directory
	buildContext, err := archive.TarWithOptions(opts.ContextDirectory, &archive.TarOptions{
		ExcludePatterns: opts.ExcludePatterns,
		NoLchown:        true,
	})
	if err != nil {
		return nil, err
	}
	defer buildContext.Close()

	labels := map[string]string{
		"org.ipaas.airflow-publisher.version": b.builderVersion,
		"org.ipaas.airflow-publisher.builder": BuilderKind,
		"org.opencontainers.image.created":    time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	b.l.Debugf("sending build context %s to the engine, build file %s", opts.ContextDirectory, opts.BuildFile)
	resp, err := b.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Dockerfile:  opts.BuildFile,
		Tags:        opts.Tags,
		Labels:      labels,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, classifyBuildError(err.Error(), err)
	}
	defer resp.Body.Close()

	output, err := ConvertOutput(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading build output: %w", err)
	}

	result := &builders.BuildResult{Output: output.Rendered}
	if output.ErrorMessage != "" {
		return result, classifyBuildError(output.ErrorMessage, nil)
	}

	if len(opts.Tags) == 0 {
		result.ImageID = output.ImageID
	} else {
		//the tag is authoritative, the aux id is missing on older engines
		inspect, _, err := b.cli.ImageInspectWithRaw(ctx, opts.Tags[0])
		if err != nil {
			return result, fmt.Errorf("%w: %v", builders.ErrImageNotBuilt, err)
		}
		result.ImageID = inspect.ID
	}
	if result.ImageID == "" {
		return result, builders.ErrImageNotBuilt
	}
	return result, nil
}

func classifyBuildError(message string, cause error) error {
	var kind error
	switch {
	case strings.Contains(message, "Cannot locate specified Dockerfile"):
		kind = builders.ErrMissingBuildFile
	case strings.Contains(strings.ToLower(message), "dockerfile parse error"):
		kind = builders.ErrInvalidBuildFile
	case cause != nil:
		return cause
	default:
		kind = builders.ErrImageNotBuilt
	}
	return fmt.Errorf("%w: %s", kind, message)
}
