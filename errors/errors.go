package errors

import "fmt"

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrSessionUnknown    = fmt.Errorf("unknown or expired session")
	ErrSessionSuperseded = fmt.Errorf("session superseded by a newer login")

	ErrNotAuthenticated  = fmt.Errorf("session token rejected")
	ErrReplayUnavailable = fmt.Errorf("chat history unavailable")

	ErrSinkClosed    = fmt.Errorf("connection is closed")
	ErrSinkSaturated = fmt.Errorf("outbound queue is full")

	ErrEmptyWords = fmt.Errorf("no words have been found")
)
