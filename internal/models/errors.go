package models

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidUser          = errors.New("invalid user id")
	ErrBalanceLimitExceeded = errors.New("balance limit exceeded")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)
