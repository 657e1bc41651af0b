package payment

import "errors"

var (
	ErrInvalidSignature    = errors.New("payment signature verification failed")
	ErrInvalidPoints       = errors.New("points amount must be positive")
	ErrNotTransactionOwner = errors.New("you can only manage your own transactions")
)
