package ledger

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid points amount")
	ErrInsufficientBalance   = errors.New("insufficient points balance")
	ErrDuplicateReference    = errors.New("duplicate payment reference")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is not pending")
	ErrUserNotFound          = errors.New("user not found")
	ErrSelfTransfer          = errors.New("cannot transfer points to yourself")
)
