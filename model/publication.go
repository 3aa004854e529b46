package model

import "time"

type PublicationState string

const (
	PublicationStateAuthenticating PublicationState = "authenticating"
	PublicationStateBuilding       PublicationState = "building"
	PublicationStateTagging        PublicationState = "tagging"
	PublicationStatePushing        PublicationState = "pushing"
	PublicationStatePublished      PublicationState = "published"
	PublicationStateFailed         PublicationState = "failed"
)

type Step string

const (
	StepValidate     Step = "validate"
	StepAuthenticate Step = "authenticate"
	StepBuild        Step = "build"
	StepTag          Step = "tag"
	StepPush         Step = "push"
)

type (
	Publication struct {
		ID         string           `bson:"_id"                  json:"id"`
		Role       Role             `bson:"role"                 json:"role"`
		BuildFile  string           `bson:"buildFile"            json:"buildFile"`
		LocalRef   string           `bson:"localRef"             json:"localRef"`
		RemoteRef  string           `bson:"remoteRef"            json:"remoteRef"`
		ImageID    string           `bson:"imageID,omitempty"    json:"imageID,omitempty"`
		Digest     string           `bson:"digest,omitempty"     json:"digest,omitempty"`
		Revision   string           `bson:"revision,omitempty"   json:"revision,omitempty"`
		State      PublicationState `bson:"state"                json:"state"`
		FailedStep Step             `bson:"failedStep,omitempty" json:"failedStep,omitempty"`
		Message    string           `bson:"message,omitempty"    json:"message,omitempty"`
		CreatedAt  time.Time        `bson:"createdAt"            json:"createdAt"`
		UpdatedAt  time.Time        `bson:"updatedAt"            json:"updatedAt"`
	}

	// BuildContextInfo is what the analyzer learned about a build context.
	BuildContextInfo struct {
		ContextDirectory string
		BuildFile        string
		ExcludePatterns  []string
		Revision         string
		Dirty            bool
	}
)
