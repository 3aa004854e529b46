package controller

import (
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers"
	"github.com/ipaas-org/airflow-publisher/providers/auth"
	"github.com/ipaas-org/airflow-publisher/providers/builders"
	"github.com/ipaas-org/airflow-publisher/providers/registry"
	"github.com/ipaas-org/airflow-publisher/repo"
	"github.com/sirupsen/logrus"
)

var _ PublisherController = new(Controller)

type Controller struct {
	Authenticator   auth.Authenticator
	Analyzer        analyzers.Analyzer
	Builder         builders.Builder
	Registry        registry.Registryer
	PublicationRepo repo.PublicationRepoer

	contextDirectory string
	buildFiles       map[model.Role]string
	l                *logrus.Logger
}

func NewController(contextDirectory string, log *logrus.Logger) *Controller {
	return &Controller{
		contextDirectory: contextDirectory,
		buildFiles:       make(map[model.Role]string),
		l:                log,
	}
}

func (c *Controller) SetBuildFile(role model.Role, buildFile string) {
	c.buildFiles[role] = buildFile
}

func (c *Controller) BuildFile(role model.Role) (string, bool) {
	f, ok := c.buildFiles[role]
	return f, ok
}
