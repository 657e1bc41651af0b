package item

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")
	ErrNotItemOwner = errors.New("you can only manage your own items")
	ErrInvalidState = errors.New("item is not in a state that allows this transition")
	ErrInvalidPrice = errors.New("points price cannot be negative")
)
