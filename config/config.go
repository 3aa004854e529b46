package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		App      `yaml:"app"`
		Log      `yaml:"logger"`
		Registry `yaml:"registry"`
		Build    `yaml:"build"`
		Database `yaml:"database"`
		RMQ      `yaml:"rmq"`
	}

	App struct {
		Name    string `yaml:"name"    env:"APP_NAME"    env-default:"airflow-publisher"`
		Version string `yaml:"version" env:"APP_VERSION" env-default:"dev"`
	}

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Type  string `yaml:"type"  env:"LOG_TYPE"  env-default:"text"`
	}

	// Registry is the fixed coordinate every role is pushed to.
	// An empty AccountID is resolved from the caller identity.
	Registry struct {
		AccountID  string `yaml:"accountID"  env:"REGISTRY_ACCOUNT_ID"`
		Region     string `yaml:"region"     env:"REGISTRY_REGION"     env-required:"true"`
		Repository string `yaml:"repository" env:"REGISTRY_REPOSITORY"`
		Profile    string `yaml:"profile"    env:"AWS_PROFILE"`
	}

	Build struct {
		ContextDirectory string      `yaml:"contextDirectory" env:"BUILD_CONTEXT" env-default:"."`
		Roles            []RoleBuild `yaml:"roles,flow"`
	}

	RoleBuild struct {
		Name      string `yaml:"name"`
		BuildFile string `yaml:"buildFile"`
	}

	Database struct {
		URI  string `yaml:"uri"  env:"DATABASE_URI"`
		Name string `yaml:"name" env:"DATABASE_NAME" env-default:"airflow-publisher"`
	}

	RMQ struct {
		URI           string `yaml:"uri"           env:"RMQ_URI"`
		RequestQueue  string `yaml:"requestQueue"  env:"RMQ_REQUEST_QUEUE"  env-default:"publish-requests"`
		ResponseQueue string `yaml:"responseQueue" env:"RMQ_RESPONSE_QUEUE" env-default:"publish-responses"`
	}
)

var ErrNoBuildFile = errors.New("no build file configured for role")

// DefaultRoles maps every role to its build file.
func DefaultRoles() []RoleBuild {
	return []RoleBuild{
		{Name: model.RoleScheduler.String(), BuildFile: "Dockerfile.scheduler"},
		{Name: model.RoleWebserver.String(), BuildFile: "Dockerfile.webserver"},
	}
}

// NewConfig reads <root>/config/config.yml and then the environment.
// A missing config file is not an error; a .env file in root is loaded if present.
func NewConfig(root string) (*Config, error) {
	cfg := &Config{}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	path := filepath.Join(root, "config", "config.yml")
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else {
		return nil, err
	}

	if len(cfg.Build.Roles) == 0 {
		cfg.Build.Roles = DefaultRoles()
	}

	return cfg, nil
}

func (c *Config) Coordinate() model.RegistryCoordinate {
	return model.RegistryCoordinate{
		AccountID:  c.Registry.AccountID,
		Region:     c.Registry.Region,
		Repository: c.Registry.Repository,
	}
}

func (c *Config) BuildFile(role model.Role) (string, error) {
	for _, r := range c.Build.Roles {
		parsed, err := model.ParseRole(r.Name)
		if err != nil {
			continue
		}
		if parsed == role && r.BuildFile != "" {
			return r.BuildFile, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoBuildFile, role)
}

// ConfiguredRoles returns the roles that have a build file, in config order.
func (c *Config) ConfiguredRoles() ([]model.Role, error) {
	roles := make([]model.Role, 0, len(c.Build.Roles))
	for _, r := range c.Build.Roles {
		role, err := model.ParseRole(r.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, r.Name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
