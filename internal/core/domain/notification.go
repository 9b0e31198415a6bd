package domain

import "time"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning:
		return true
	}
	return false
}

type Notification struct {
	ID        string
	Title     string
	Message   string
	Severity  Severity
	CreatedAt time.Time
	Duration  time.Duration
}

type NotificationRequest struct {
	Title    string
	Message  string
	Severity Severity
	Duration time.Duration
}
