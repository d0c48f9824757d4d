package catalog

import "github.com/goliatone/go-errors"

var ErrProductNotFound = errors.New("Product not found", errors.CategoryNotFound).
	WithTextCode("PRODUCT_NOT_FOUND").
	WithCode(errors.CodeNotFound)
