package issues

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// CreateIssuePayload is the body of POST /issues
type CreateIssuePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
}

func (p CreateIssuePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title,
			validation.Required.Error("Title is required"),
		),
		validation.Field(&p.Description,
			validation.Required.Error("Description is required"),
		),
		validation.Field(&p.OrderID,
			validation.Required.Error("Order ID is required"),
			is.UUID.Error("Order ID must be a valid id"),
		),
	)
}

// UpdateIssuePayload is the body of PUT /issues/:id, every field is optional
type UpdateIssuePayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (p UpdateIssuePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title,
			validation.NilOrNotEmpty.Error("Title is required"),
		),
		validation.Field(&p.Description,
			validation.NilOrNotEmpty.Error("Description is required"),
		),
		validation.Field(&p.Status,
			validation.In(statusValues()...).Error("Status must be one of open, in-progress, resolved, closed"),
		),
	)
}

func (p UpdateIssuePayload) changes() Changes {
	out := Changes{
		Title:       p.Title,
		Description: p.Description,
	}
	if p.Status != nil {
		s := Status(*p.Status)
		out.Status = &s
	}
	return out
}
