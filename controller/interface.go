package controller

import (
	"context"

	"github.com/ipaas-org/airflow-publisher/model"
)

type (
	PublisherController interface {
		Publish(ctx context.Context, role model.Role, buildFile string) (*model.Publication, error)
		PublishRole(ctx context.Context, role model.Role) (*model.Publication, error)
	}
)
