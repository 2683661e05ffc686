package model

import "time"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusFailed     RequestStatus = "failed"
)

// Terminal reports whether no further transition may leave s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDone || s == RequestStatusFailed
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusDone, RequestStatusFailed:
		return true
	}
	return false
}

type Request struct {
	ID        int64         `json:"id"`
	Topic     string        `json:"topic"`
	Status    RequestStatus `json:"status"`
	Error     *string       `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
