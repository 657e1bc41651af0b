package swap

import "errors"

var (
	ErrSwapNotFound     = errors.New("swap request not found")
	ErrNotSwapOwner     = errors.New("only the item owner can decide this swap request")
	ErrInvalidState     = errors.New("swap request has already been decided")
	ErrSelfSwap         = errors.New("you cannot request a swap on your own item")
	ErrDuplicatePending = errors.New("you already have a pending request for this item")
	ErrItemNotAvailable = errors.New("item is not available for swaps")
)
