package model

type (
	PublishResponse struct {
		RequestID     string         `json:"requestID"`
		PublicationID string         `json:"publicationID,omitempty"`
		Role          string         `json:"role"`
		Status        ResponseStatus `json:"status"` // success | failed
		RemoteRef     string         `json:"remoteRef,omitempty"`
		ImageID       string         `json:"imageID,omitempty"`
		Digest        string         `json:"digest,omitempty"`
		Error         *PublishError  `json:"error,omitempty"`
	}

	PublishError struct {
		Step    Step   `json:"step"`
		Message string `json:"message"`
	}
)

type ResponseStatus string

const (
	ResponseStatusSuccess ResponseStatus = "success"
	ResponseStatusFailed  ResponseStatus = "failed"
)
