package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/auth"
	"github.com/sirupsen/logrus"
)

var _ auth.Authenticator = new(Authenticator)

type ECRAPI interface {
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
}

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type Authenticator struct {
	ecr        ECRAPI
	sts        STSAPI
	coordinate model.RegistryCoordinate
	l          *logrus.Logger
}

func NewAuthenticator(ecrAPI ECRAPI, stsAPI STSAPI, coordinate model.RegistryCoordinate, l *logrus.Logger) *Authenticator {
	return &Authenticator{
		ecr:        ecrAPI,
		sts:        stsAPI,
		coordinate: coordinate,
		l:          l,
	}
}

// NewAuthenticatorFromEnv loads the default AWS credential chain, with optional
// profile, for the coordinate's region.
func NewAuthenticatorFromEnv(ctx context.Context, profile string, coordinate model.RegistryCoordinate, l *logrus.Logger) (*Authenticator, error) {
	cfg, err := LoadConfig(ctx, profile, coordinate.Region)
	if err != nil {
		return nil, err
	}
	return NewAuthenticator(awsecr.NewFromConfig(cfg), sts.NewFromConfig(cfg), coordinate, l), nil
}

func LoadConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

func (a *Authenticator) Coordinate(ctx context.Context) (model.RegistryCoordinate, error) {
	if a.coordinate.AccountID != "" {
		return a.coordinate, nil
	}

	a.l.Debug("registry account id not configured, asking sts")
	out, err := a.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return model.RegistryCoordinate{}, fmt.Errorf("GetCallerIdentity: %w", err)
	}
	a.coordinate.AccountID = aws.ToString(out.Account)
	a.l.Infof("resolved registry account id %s", a.coordinate.AccountID)
	return a.coordinate, nil
}

func (a *Authenticator) Authenticate(ctx context.Context) (*model.RegistryAuth, error) {
	coordinate, err := a.Coordinate(ctx)
	if err != nil {
		return nil, err
	}

	out, err := a.ecr.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("GetAuthorizationToken: %w", err)
	}
	if len(out.AuthorizationData) == 0 || out.AuthorizationData[0].AuthorizationToken == nil {
		return nil, auth.ErrNoAuthorizationData
	}

	data := out.AuthorizationData[0]
	username, password, err := decodeToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return nil, err
	}

	registryAuth := &model.RegistryAuth{
		Username:      username,
		Password:      password,
		ServerAddress: coordinate.Host(),
	}
	if data.ExpiresAt != nil {
		registryAuth.ExpiresAt = *data.ExpiresAt
	}
	a.l.Debugf("obtained registry token for %s expiring at %s", registryAuth.ServerAddress, registryAuth.ExpiresAt)
	return registryAuth, nil
}

// decodeToken splits the base64 "user:password" token.
func decodeToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", auth.ErrMalformedToken, err)
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" || password == "" {
		return "", "", auth.ErrMalformedToken
	}
	return username, password, nil
}
