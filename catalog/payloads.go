package catalog

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// CreateProductPayload is the body of POST /products
type CreateProductPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Category    string   `json:"category"`
	IsActive    *bool    `json:"is_active"`
}

func (p CreateProductPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("Name is required"),
		),
		validation.Field(&p.Description,
			validation.Required.Error("Description is required"),
		),
		validation.Field(&p.Price,
			validation.NotNil.Error("Price is required"),
			validation.Min(0.0).Error("Price must be a positive number"),
		),
		validation.Field(&p.Stock,
			validation.NotNil.Error("Stock is required"),
			validation.Min(0).Error("Stock must be a positive number"),
		),
		validation.Field(&p.Category,
			validation.Required.Error("Category is required"),
		),
	)
}

func (p CreateProductPayload) record() *Product {
	out := &Product{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		IsActive:    true,
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Stock != nil {
		out.Stock = *p.Stock
	}
	if p.IsActive != nil {
		out.IsActive = *p.IsActive
	}
	return out
}

// UpdateProductPayload is the body of PUT /products/:id, every field is optional
type UpdateProductPayload struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	IsActive    *bool    `json:"is_active"`
}

func (p UpdateProductPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.NilOrNotEmpty.Error("Name is required"),
		),
		validation.Field(&p.Description,
			validation.NilOrNotEmpty.Error("Description is required"),
		),
		validation.Field(&p.Price,
			validation.Min(0.0).Error("Price must be a positive number"),
		),
		validation.Field(&p.Stock,
			validation.Min(0).Error("Stock must be a positive number"),
		),
		validation.Field(&p.Category,
			validation.NilOrNotEmpty.Error("Category is required"),
		),
	)
}

func (p UpdateProductPayload) changes() Changes {
	return Changes{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		IsActive:    p.IsActive,
	}
}
