package orders

import "github.com/goliatone/go-errors"

var ErrOrderNotFound = errors.New("Order not found", errors.CategoryNotFound).
	WithTextCode("ORDER_NOT_FOUND").
	WithCode(errors.CodeNotFound)
