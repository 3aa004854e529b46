package model

type (
	PublishRequest struct {
		RequestID string `json:"requestID"`
		Role      string `json:"role"`
	}
)
