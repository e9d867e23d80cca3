package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrResidentNotFound   = errors.New("email not found")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrIdentityMismatch   = errors.New("identity details do not match our records")
	ErrPaymentNotFound    = errors.New("payment month not found")
	ErrInvalidArgument    = errors.New("invalid argument")
)
