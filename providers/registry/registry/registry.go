package registry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	dockerregistry "github.com/docker/docker/api/types/registry"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/registry"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var _ registry.Registryer = new(Registry)

var ErrMissingAuth = errors.New("missing registry credentials")

// DockerAPI is the part of the engine client the registry needs.
type DockerAPI interface {
	RegistryLogin(ctx context.Context, auth dockerregistry.AuthConfig) (dockerregistry.AuthenticateOKBody, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, image string, options image.PushOptions) (io.ReadCloser, error)
}

type Registry struct {
	dockerClient DockerAPI
	l            *logrus.Logger
}

func NewRegistry(cli DockerAPI, l *logrus.Logger) *Registry {
	return &Registry{
		dockerClient: cli,
		l:            l,
	}
}

func authConfig(auth *model.RegistryAuth) dockerregistry.AuthConfig {
	return dockerregistry.AuthConfig{
		Username:      auth.Username,
		Password:      auth.Password,
		ServerAddress: auth.ServerAddress,
	}
}

func (r *Registry) Login(ctx context.Context, auth *model.RegistryAuth) error {
	if auth == nil {
		return ErrMissingAuth
	}
	body, err := r.dockerClient.RegistryLogin(ctx, authConfig(auth))
	if err != nil {
		return fmt.Errorf("login to %s: %w", auth.ServerAddress, err)
	}
	r.l.Infof("logged in to %s: %s", auth.ServerAddress, body.Status)
	return nil
}

func (r *Registry) TagImage(ctx context.Context, source, target string) error {
	return r.dockerClient.ImageTag(ctx, source, target)
}

func (r *Registry) PushImage(ctx context.Context, ref string, auth *model.RegistryAuth) (string, error) {
	if auth == nil {
		return "", ErrMissingAuth
	}
	encoded, err := dockerregistry.EncodeAuthConfig(authConfig(auth))
	if err != nil {
		return "", err
	}

	rd, err := r.dockerClient.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return "", err
	}
	defer rd.Close()

	return r.checkPushStream(rd)
}

// checkPushStream drains the push stream, failing on the first reported error.
func (r *Registry) checkPushStream(rd io.Reader) (string, error) {
	var digest string

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !gjson.ValidBytes(line) {
			continue
		}
		msg := gjson.ParseBytes(line)
		if detail := msg.Get("errorDetail.message").String(); detail != "" {
			return "", errors.New(detail)
		}
		if e := msg.Get("error").String(); e != "" {
			return "", errors.New(e)
		}
		if d := msg.Get("aux.Digest").String(); d != "" {
			digest = d
		}
		if status := msg.Get("status").String(); status != "" && !msg.Get("progressDetail.current").Exists() {
			r.l.Debugf("push: %s %s", msg.Get("id").String(), status)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return digest, nil
}
