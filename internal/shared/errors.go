package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP indicates a wrong or expired one-time code.
	ErrInvalidOTP = errors.New("invalid or expired verification code")
	// ErrInvalidResetToken indicates a wrong or expired reset token.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
