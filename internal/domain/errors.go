package domain

import "errors"

var (
	// Input errors
	ErrPhoneIncomplete = errors.New("phone number must contain exactly 10 digits")
	ErrOTPIncomplete   = errors.New("verification code must contain exactly 6 digits")

	// Flow errors
	ErrWrongPhase     = errors.New("operation is not available in the current login step")
	ErrBusy           = errors.New("another request is in progress")
	ErrCooldownActive = errors.New("resend is not available yet")
	ErrFlowClosed     = errors.New("login flow is closed")

	// OTP errors
	ErrInvalidOTP     = errors.New("invalid OTP code")
	ErrOTPExpired     = errors.New("OTP code has expired")
	ErrOTPMaxAttempts = errors.New("maximum OTP attempts exceeded")
	ErrOTPNotFound    = errors.New("OTP code not found for this phone number")

	// Session errors
	ErrSessionNotFound = errors.New("login session not found")
)
