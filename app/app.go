package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ipaas-org/airflow-publisher/config"
	"github.com/ipaas-org/airflow-publisher/controller"
	"github.com/ipaas-org/airflow-publisher/handlers/rabbitmq"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/pkg/logger"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers/baseAnalyzer"
	"github.com/ipaas-org/airflow-publisher/providers/auth/ecr"
	"github.com/ipaas-org/airflow-publisher/providers/builders/docker"
	"github.com/ipaas-org/airflow-publisher/providers/registry/registry"
	"github.com/ipaas-org/airflow-publisher/repo/mongo"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config     *config.Config
	L          *logrus.Logger
	Controller *controller.Controller

	closers []func(context.Context) error
}

// New reads the configuration found under root and wires every provider.
func New(ctx context.Context, root string) (*App, error) {
	conf, err := config.NewConfig(root)
	if err != nil {
		return nil, err
	}

	l := logger.NewLogger(conf.Log.Level, conf.Log.Type)
	l.Debug("initialized logger")
	l.Debugf("config: %+v", conf)

	a := &App{Config: conf, L: l}

	cli, err := docker.NewDockerClient()
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return cli.Close() })

	authenticator, err := ecr.NewAuthenticatorFromEnv(ctx, conf.Registry.Profile, conf.Coordinate(), l)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	c := controller.NewController(conf.Build.ContextDirectory, l)
	c.Authenticator = authenticator
	c.Analyzer = baseAnalyzer.NewBaseAnalyzer(l)
	c.Builder = docker.NewDockerBuilder(cli, conf.App.Version, l)
	c.Registry = registry.NewRegistry(cli, l)

	roles, err := conf.ConfiguredRoles()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	for _, role := range roles {
		buildFile, err := conf.BuildFile(role)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		c.SetBuildFile(role, buildFile)
		l.Debugf("role %s builds from %s", role, buildFile)
	}

	if conf.Database.URI != "" {
		client, collection, err := mongo.Connect(ctx, conf.Database.URI, conf.Database.Name)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		c.PublicationRepo = mongo.NewPublicationRepoer(collection)
		l.Info("recording publications in mongo")
	}

	a.Controller = c
	return a, nil
}

func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.L != nil {
			a.L.Errorf("error closing: %v", err)
		}
	}
	a.closers = nil
}

// Publish publishes the given roles, or every configured role when none are given.
func (a *App) Publish(ctx context.Context, names []string) error {
	var roles []model.Role
	if len(names) == 0 {
		var err error
		if roles, err = a.Config.ConfiguredRoles(); err != nil {
			return err
		}
	}
	for _, name := range names {
		role, err := model.ParseRole(name)
		if err != nil {
			return fmt.Errorf("%w: %q", err, name)
		}
		roles = append(roles, role)
	}

	_, err := a.Controller.PublishAll(ctx, roles)
	return err
}

func (a *App) Serve(ctx context.Context) error {
	if a.Config.RMQ.URI == "" {
		return fmt.Errorf("rmq uri is not configured")
	}
	rmq := rabbitmq.NewRabbitMQ(a.Config.RMQ.URI, a.Config.RMQ.RequestQueue, a.Config.RMQ.ResponseQueue, a.Controller, a.L)
	if err := rmq.Connect(); err != nil {
		return fmt.Errorf("error connecting to rabbitmq: %w", err)
	}
	defer func() {
		if err := rmq.Close(); err != nil {
			a.L.Error(err)
		}
	}()

	a.L.Infof("waiting for publish requests on %s", a.Config.RMQ.RequestQueue)
	return rmq.Consume(ctx)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RunRole publishes a single role from the working directory's configuration
// and returns the process exit code.
func RunRole(role model.Role) int {
	ctx, cancel := SignalContext()
	defer cancel()

	a, err := New(ctx, ".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer a.Close(context.Background())

	if err := a.PublishRole(ctx, role); err != nil {
		return 1
	}
	return 0
}

// PublishRole publishes a single role and logs any failure, including the ones
// rejected before the workflow starts.
func (a *App) PublishRole(ctx context.Context, role model.Role) error {
	if _, err := a.Controller.PublishRole(ctx, role); err != nil {
		a.L.Errorf("publishing %s: %v", role, err)
		return err
	}
	return nil
}
