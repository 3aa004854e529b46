package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	ImageNamePrefix = "airflow-"
	ImageNameSuffix = "-ecr"
	LatestTag       = "latest"
)

type (
	// RegistryCoordinate identifies where images are stored remotely.
	RegistryCoordinate struct {
		AccountID  string
		Region     string
		Repository string
	}

	ImageReference struct {
		Name     string
		Tag      string
		Registry RegistryCoordinate
	}

	RegistryAuth struct {
		Username      string
		Password      string
		ServerAddress string
		ExpiresAt     time.Time
	}
)

// Host returns the ECR registry host for the coordinate.
func (c RegistryCoordinate) Host() string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", c.AccountID, c.Region)
}

// String returns the host optionally followed by the repository namespace.
func (c RegistryCoordinate) String() string {
	repo := strings.Trim(c.Repository, "/")
	if repo == "" {
		return c.Host()
	}
	return c.Host() + "/" + repo
}

func NewImageReference(role Role, registry RegistryCoordinate) ImageReference {
	return ImageReference{
		Name:     ImageNamePrefix + role.String() + ImageNameSuffix,
		Tag:      LatestTag,
		Registry: registry,
	}
}

// Local is the name:tag known only to the local engine.
func (i ImageReference) Local() string {
	return i.Name + ":" + i.Tag
}

// Remote is the fully qualified registry/name:tag.
func (i ImageReference) Remote() string {
	return i.Registry.String() + "/" + i.Local()
}
