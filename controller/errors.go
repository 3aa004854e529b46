package controller

import (
	"errors"
	"fmt"

	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/providers/analyzers"
)

var (
	ErrValidation     = errors.New("validation failure")
	ErrAuthentication = errors.New("authentication failure")
	ErrBuild          = errors.New("build failure")
	ErrTag            = errors.New("tag failure")
	ErrPush           = errors.New("push failure")

	ErrInvalidRole          = model.ErrUnknownRole
	ErrMissingBuildFile     = analyzers.ErrMissingBuildFile
	ErrNoBuildFile          = errors.New("no build file configured for role")
	ErrMissingAuthenticator = errors.New("missing authenticator")
	ErrMissingAnalyzer      = errors.New("missing analyzer")
	ErrMissingBuilder       = errors.New("missing builder")
	ErrMissingRegistry      = errors.New("missing registry")
)

var stepErrors = map[model.Step]error{
	model.StepValidate:     ErrValidation,
	model.StepAuthenticate: ErrAuthentication,
	model.StepBuild:        ErrBuild,
	model.StepTag:          ErrTag,
	model.StepPush:         ErrPush,
}

// StepError is returned by Publish; errors.Is matches both the step's
// sentinel (ErrBuild, ...) and the underlying cause.
type StepError struct {
	Step model.Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", stepErrors[e.Step], e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return stepErrors[e.Step] == target
}

// FailedStep returns the workflow step err failed at, if any.
func FailedStep(err error) (model.Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}
