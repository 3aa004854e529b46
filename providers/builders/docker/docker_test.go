package docker

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/ipaas-org/airflow-publisher/providers/builders"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

type fakeEngine struct {
	stream     string
	buildErr   error
	inspectErr error
	imageID    string

	options types.ImageBuildOptions
	files   []string
}

func (f *fakeEngine) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	f.options = options
	tr := tar.NewReader(buildContext)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.ImageBuildResponse{}, err
		}
		f.files = append(f.files, hdr.Name)
	}
	if f.buildErr != nil {
		return types.ImageBuildResponse{}, f.buildErr
	}
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.stream))}, nil
}

func (f *fakeEngine) ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	if f.inspectErr != nil {
		return types.ImageInspect{}, nil, f.inspectErr
	}
	return types.ImageInspect{ID: f.imageID}, nil, nil
}

func newContext(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "Dockerfile.scheduler"), []byte("FROM scratch\n"), 0644))
	assert.NilError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0755))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "logs", "scheduler.log"), []byte("noise"), 0644))
	return dir
}

func newBuilder(engine DockerAPI) *DockerBuilder {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewDockerBuilder(engine, "test", l)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("build image", func(t *testing.T) {
		engine := &fakeEngine{
			stream:  `{"aux":{"ID":"sha256:aux"}}` + "\n" + `{"stream":"Successfully tagged airflow-scheduler-ecr:latest\n"}`,
			imageID: "sha256:inspected",
		}
		result, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.scheduler",
			Tags:             []string{"airflow-scheduler-ecr:latest"},
			Labels:           map[string]string{"org.opencontainers.image.revision": "abc"},
			ExcludePatterns:  []string{"logs"},
		})
		assert.NilError(t, err)
		assert.Equal(t, result.ImageID, "sha256:inspected")
		assert.Equal(t, engine.options.Dockerfile, "Dockerfile.scheduler")
		assert.DeepEqual(t, engine.options.Tags, []string{"airflow-scheduler-ecr:latest"})
		assert.Equal(t, engine.options.Labels["org.opencontainers.image.revision"], "abc")
		assert.Equal(t, engine.options.Labels["org.ipaas.airflow-publisher.version"], "test")
		assert.DeepEqual(t, engine.files, []string{"Dockerfile.scheduler"})
	})

	t.Run("detect build error in stream", func(t *testing.T) {
		engine := &fakeEngine{
			stream: `{"errorDetail":{"message":"returned a non-zero code: 1"},"error":"returned a non-zero code: 1"}`,
		}
		result, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.scheduler",
			Tags:             []string{"airflow-scheduler-ecr:latest"},
		})
		assert.Assert(t, errors.Is(err, builders.ErrImageNotBuilt))
		assert.Assert(t, strings.Contains(string(result.Output), "non-zero code"))
	})

	t.Run("dockerfile parse error", func(t *testing.T) {
		engine := &fakeEngine{
			stream: `{"errorDetail":{"message":"dockerfile parse error line 1: unknown instruction: FORM"}}`,
		}
		_, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.scheduler",
		})
		assert.Assert(t, errors.Is(err, builders.ErrInvalidBuildFile))
	})

	t.Run("missing dockerfile reported by the engine", func(t *testing.T) {
		engine := &fakeEngine{
			buildErr: errors.New("Error response from daemon: Cannot locate specified Dockerfile: Dockerfile.webserver"),
		}
		_, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.webserver",
		})
		assert.Assert(t, errors.Is(err, builders.ErrMissingBuildFile))
	})

	t.Run("engine unreachable", func(t *testing.T) {
		cause := errors.New("Cannot connect to the Docker daemon")
		engine := &fakeEngine{buildErr: cause}
		_, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.scheduler",
		})
		assert.Assert(t, errors.Is(err, cause))
	})

	t.Run("tag missing after build", func(t *testing.T) {
		engine := &fakeEngine{
			stream:     `{"stream":"done\n"}`,
			inspectErr: errors.New("No such image"),
		}
		_, err := newBuilder(engine).Build(ctx, builders.BuildOptions{
			ContextDirectory: newContext(t),
			BuildFile:        "Dockerfile.scheduler",
			Tags:             []string{"airflow-scheduler-ecr:latest"},
		})
		assert.Assert(t, errors.Is(err, builders.ErrImageNotBuilt))
	})

	t.Run("no build file", func(t *testing.T) {
		_, err := newBuilder(&fakeEngine{}).Build(ctx, builders.BuildOptions{ContextDirectory: t.TempDir()})
		assert.Assert(t, errors.Is(err, builders.ErrMissingBuildFile))
	})
}
