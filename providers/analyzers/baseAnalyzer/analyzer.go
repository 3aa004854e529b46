package baseAnalyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/sirupsen/logrus"
)

const dockerIgnoreFile = ".dockerignore"

var _ analyzers.Analyzer = new(BaseAnalyzer)

type BaseAnalyzer struct {
	l *logrus.Logger
}

func NewBaseAnalyzer(l *logrus.Logger) *BaseAnalyzer {
	return &BaseAnalyzer{l: l}
}

func (b *BaseAnalyzer) Analyze(ctx context.Context, contextDir, buildFile string) (*model.BuildContextInfo, error) {
	absContext, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(absContext); err != nil || !fi.IsDir() {
		if err == nil || os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", analyzers.ErrInexistingContext, contextDir)
		}
		return nil, err
	}

	relBuildFile, err := resolveBuildFile(absContext, buildFile)
	if err != nil {
		return nil, err
	}

	info := &model.BuildContextInfo{
		ContextDirectory: absContext,
		BuildFile:        relBuildFile,
	}

	info.ExcludePatterns, err = readExcludes(absContext, relBuildFile)
	if err != nil {
		return nil, err
	}

	info.Revision, info.Dirty = b.revision(absContext)
	b.l.Debugf("build context %s: buildFile=%s excludes=%d revision=%q dirty=%t",
		absContext, relBuildFile, len(info.ExcludePatterns), info.Revision, info.Dirty)
	return info, nil
}

// resolveBuildFile returns the build file path relative to the context, slash separated.
func resolveBuildFile(absContext, buildFile string) (string, error) {
	if buildFile == "" {
		return "", analyzers.ErrMissingBuildFile
	}
	path := buildFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(absContext, path)
	}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", analyzers.ErrMissingBuildFile, buildFile)
		}
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", analyzers.ErrMissingBuildFile, buildFile)
	}

	rel, err := filepath.Rel(absContext, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", analyzers.ErrBuildFileOutsideContext, buildFile)
	}
	return filepath.ToSlash(rel), nil
}

// readExcludes loads .dockerignore; the build file and the ignore file itself are
// always sent to the engine.
func readExcludes(absContext, relBuildFile string) ([]string, error) {
	f, err := os.Open(filepath.Join(absContext, dockerIgnoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	excludes, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dockerIgnoreFile, err)
	}
	if len(excludes) == 0 {
		return nil, nil
	}
	return append(excludes, "!"+relBuildFile, "!"+dockerIgnoreFile), nil
}

func (b *BaseAnalyzer) revision(absContext string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(absContext, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			b.l.Warnf("unable to open git repository at %s: %v", absContext, err)
		}
		return "", false
	}

	head, err := repo.Head()
	if err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			b.l.Warnf("unable to read HEAD: %v", err)
		}
		return "", false
	}

	wt, err := repo.Worktree()
	if err != nil {
		return head.Hash().String(), false
	}
	status, err := wt.Status()
	if err != nil {
		b.l.Warnf("unable to read worktree status: %v", err)
		return head.Hash().String(), false
	}
	return head.Hash().String(), !status.IsClean()
}
