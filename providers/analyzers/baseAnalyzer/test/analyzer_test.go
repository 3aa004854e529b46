package baseAnalyzer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers/baseAnalyzer"
	"github.com/sirupsen/logrus"
	"gotest.tools/assert"
)

func newAnalyzer() *baseAnalyzer.BaseAnalyzer {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return baseAnalyzer.NewBaseAnalyzer(l)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("build file present, no repository", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "Dockerfile.scheduler"), "FROM apache/airflow:2.9.0\n")

		info, err := newAnalyzer().Analyze(ctx, dir, "Dockerfile.scheduler")
		assert.NilError(t, err)
		assert.Equal(t, info.BuildFile, "Dockerfile.scheduler")
		assert.Equal(t, info.Revision, "")
		assert.Assert(t, info.ExcludePatterns == nil)
	})

	t.Run("missing build file", func(t *testing.T) {
		_, err := newAnalyzer().Analyze(ctx, t.TempDir(), "Dockerfile.webserver")
		assert.Assert(t, errors.Is(err, analyzers.ErrMissingBuildFile))
	})

	t.Run("build file is a directory", func(t *testing.T) {
		dir := t.TempDir()
		assert.NilError(t, os.Mkdir(filepath.Join(dir, "Dockerfile.webserver"), 0755))
		_, err := newAnalyzer().Analyze(ctx, dir, "Dockerfile.webserver")
		assert.Assert(t, errors.Is(err, analyzers.ErrMissingBuildFile))
	})

	t.Run("build file outside context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Dockerfile.scheduler"), "FROM scratch\n")
		contextDir := filepath.Join(root, "ctx")
		assert.NilError(t, os.Mkdir(contextDir, 0755))

		_, err := newAnalyzer().Analyze(ctx, contextDir, "../Dockerfile.scheduler")
		assert.Assert(t, errors.Is(err, analyzers.ErrBuildFileOutsideContext))
	})

	t.Run("inexisting context", func(t *testing.T) {
		_, err := newAnalyzer().Analyze(ctx, filepath.Join(t.TempDir(), "nope"), "Dockerfile")
		assert.Assert(t, errors.Is(err, analyzers.ErrInexistingContext))
	})

	t.Run("dockerignore keeps build file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "docker", "Dockerfile.webserver"), "FROM scratch\n")
		writeFile(t, filepath.Join(dir, ".dockerignore"), "# comment\nlogs/\n*.pyc\n")

		info, err := newAnalyzer().Analyze(ctx, dir, "docker/Dockerfile.webserver")
		assert.NilError(t, err)
		assert.Equal(t, info.BuildFile, "docker/Dockerfile.webserver")
		assert.DeepEqual(t, info.ExcludePatterns, []string{"logs", "*.pyc", "!docker/Dockerfile.webserver", "!.dockerignore"})
	})

	t.Run("git revision and dirty worktree", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		assert.NilError(t, err)
		writeFile(t, filepath.Join(dir, "Dockerfile.scheduler"), "FROM scratch\n")

		wt, err := repo.Worktree()
		assert.NilError(t, err)
		_, err = wt.Add("Dockerfile.scheduler")
		assert.NilError(t, err)
		hash, err := wt.Commit("initial", &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		assert.NilError(t, err)

		info, err := newAnalyzer().Analyze(ctx, dir, "Dockerfile.scheduler")
		assert.NilError(t, err)
		assert.Equal(t, info.Revision, hash.String())
		assert.Assert(t, !info.Dirty)

		writeFile(t, filepath.Join(dir, "Dockerfile.scheduler"), "FROM alpine\n")
		info, err = newAnalyzer().Analyze(ctx, dir, "Dockerfile.scheduler")
		assert.NilError(t, err)
		assert.Assert(t, info.Dirty)
	})
}
