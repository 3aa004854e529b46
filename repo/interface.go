package repo

import (
	"context"
	"errors"

	"github.com/ipaas-org/airflow-publisher/model"
)

type PublicationRepoer interface {
	Insert(ctx context.Context, publication *model.Publication) error
	UpdateState(ctx context.Context, publication *model.Publication) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Publication, error)
}

var (
	ErrNotFound error = errors.New("not found")
)
