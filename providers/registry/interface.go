package registry

import (
	"context"

	"github.com/ipaas-org/airflow-publisher/model"
)

type Registryer interface {
	// Login authenticates the local engine against auth.ServerAddress.
	Login(ctx context.Context, auth *model.RegistryAuth) error
	TagImage(ctx context.Context, source, target string) error
	// PushImage pushes ref and returns the digest the registry reported.
	PushImage(ctx context.Context, ref string, auth *model.RegistryAuth) (string, error)
}
