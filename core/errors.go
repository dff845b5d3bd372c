package core

import "errors"

// Error classes shared by every component. Components wrap these with
// context; the HTTP layer maps them to status codes with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("invalid payload")
	ErrPersistence    = errors.New("persistence failure")
)
