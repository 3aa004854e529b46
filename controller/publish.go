package controller

import (
	"context"
	"fmt"

	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/builders"
)

const (
	labelRole     = "org.ipaas.airflow-publisher.role"
	labelRevision = "org.opencontainers.image.revision"
)

// PublishRole publishes role using the build file configured for it.
func (c *Controller) PublishRole(ctx context.Context, role model.Role) (*model.Publication, error) {
	parsed, err := model.ParseRole(role.String())
	if err != nil {
		return nil, &StepError{Step: model.StepValidate, Err: fmt.Errorf("%w: %q", err, role)}
	}
	buildFile, ok := c.buildFiles[parsed]
	if !ok {
		return nil, &StepError{Step: model.StepValidate, Err: fmt.Errorf("%w: %s", ErrNoBuildFile, role)}
	}
	return c.Publish(ctx, parsed, buildFile)
}

// PublishAll publishes roles one after the other and stops at the first failure.
func (c *Controller) PublishAll(ctx context.Context, roles []model.Role) ([]*model.Publication, error) {
	publications := make([]*model.Publication, 0, len(roles))
	for _, role := range roles {
		p, err := c.PublishRole(ctx, role)
		if p != nil {
			publications = append(publications, p)
		}
		if err != nil {
			return publications, err
		}
	}
	return publications, nil
}

// Publish authenticates, builds buildFile as airflow-<role>-ecr:latest, tags it
// with the registry coordinate and pushes it. The first failing step aborts the
// rest; nothing is rolled back.
func (c *Controller) Publish(ctx context.Context, role model.Role, buildFile string) (*model.Publication, error) {
	parsed, err := model.ParseRole(role.String())
	if err != nil {
		return nil, &StepError{Step: model.StepValidate, Err: fmt.Errorf("%w: %q", err, role)}
	}
	role = parsed
	if err := c.checkProviders(); err != nil {
		return nil, &StepError{Step: model.StepValidate, Err: err}
	}

	c.l.Infof("analyzing build context %s for %s", c.contextDirectory, role)
	info, err := c.Analyzer.Analyze(ctx, c.contextDirectory, buildFile)
	if err != nil {
		c.l.Errorf("error analyzing build context: %v", err)
		return nil, &StepError{Step: model.StepValidate, Err: err}
	}

	ref := model.NewImageReference(role, model.RegistryCoordinate{})
	p := c.newPublication(ctx, role, buildFile, ref)
	p.Revision = info.Revision

	// step 1, publications start out authenticating
	coordinate, err := c.Authenticator.Coordinate(ctx)
	if err != nil {
		return p, c.fail(ctx, p, model.StepAuthenticate, err)
	}
	ref.Registry = coordinate
	p.RemoteRef = ref.Remote()

	c.l.Infof("requesting registry token for %s", coordinate.Host())
	registryAuth, err := c.Authenticator.Authenticate(ctx)
	if err != nil {
		return p, c.fail(ctx, p, model.StepAuthenticate, err)
	}
	if err := c.Registry.Login(ctx, registryAuth); err != nil {
		return p, c.fail(ctx, p, model.StepAuthenticate, err)
	}

	// step 2
	c.transition(ctx, p, model.PublicationStateBuilding)
	labels := map[string]string{labelRole: role.String()}
	if info.Revision != "" {
		labels[labelRevision] = info.Revision
	}
	if info.Dirty {
		c.l.Warnf("building %s from a dirty worktree at %s", ref.Local(), info.Revision)
	}
	c.l.Infof("building %s from %s", ref.Local(), info.BuildFile)
	result, err := c.Builder.Build(ctx, builders.BuildOptions{
		ContextDirectory: info.ContextDirectory,
		BuildFile:        info.BuildFile,
		Tags:             []string{ref.Local()},
		Labels:           labels,
		ExcludePatterns:  info.ExcludePatterns,
	})
	if err != nil {
		if result != nil && len(result.Output) > 0 {
			c.l.Errorf("build output: %s", result.Output)
		}
		return p, c.fail(ctx, p, model.StepBuild, err)
	}
	c.l.Debugf("build output: %s", result.Output)
	p.ImageID = result.ImageID
	c.l.Infof("image built successfully: id=%s", result.ImageID)

	// step 3
	c.transition(ctx, p, model.PublicationStateTagging)
	c.l.Infof("tagging %s as %s", ref.Local(), ref.Remote())
	if err := c.Registry.TagImage(ctx, ref.Local(), ref.Remote()); err != nil {
		return p, c.fail(ctx, p, model.StepTag, err)
	}

	// step 4
	c.transition(ctx, p, model.PublicationStatePushing)
	c.l.Infof("pushing %s", ref.Remote())
	digest, err := c.Registry.PushImage(ctx, ref.Remote(), registryAuth)
	if err != nil {
		return p, c.fail(ctx, p, model.StepPush, err)
	}
	p.Digest = digest

	c.transition(ctx, p, model.PublicationStatePublished)
	c.l.Infof("published %s (digest %s)", ref.Remote(), digest)
	return p, nil
}

func (c *Controller) checkProviders() error {
	switch {
	case c.Authenticator == nil:
		return ErrMissingAuthenticator
	case c.Analyzer == nil:
		return ErrMissingAnalyzer
	case c.Builder == nil:
		return ErrMissingBuilder
	case c.Registry == nil:
		return ErrMissingRegistry
	}
	return nil
}
