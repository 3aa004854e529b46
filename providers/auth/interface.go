package auth

import (
	"context"
	"errors"

	"github.com/ipaas-org/airflow-publisher/model"
)

var (
	ErrNoAuthorizationData = errors.New("no authorization data returned")
	ErrMalformedToken      = errors.New("malformed authorization token")
)

// Authenticator issues short-lived registry credentials.
type Authenticator interface {
	Authenticate(ctx context.Context) (*model.RegistryAuth, error)
	// Coordinate returns the registry coordinate with the account id resolved.
	Coordinate(ctx context.Context) (model.RegistryCoordinate, error)
}
