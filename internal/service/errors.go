package service

import "errors"

var (
	ErrUnknownGroup     = errors.New("unknown group")
	ErrGroupNotSet      = errors.New("group not set")
	ErrInvalidTime      = errors.New("invalid time, expected HH:MM")
	ErrInvalidSubgroup  = errors.New("invalid subgroup")
	ErrInvalidDate      = errors.New("invalid date")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrUserNotFound     = errors.New("user not found")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrEmptyFeedback    = errors.New("empty feedback")
)
