package issues

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/auth"
)

func TestCreateIssuePayload_Validate(t *testing.T) {
	assert.Equal(t, []auth.FieldError{
		{Field: "description", Message: "Description is required"},
		{Field: "order_id", Message: "Order ID is required"},
		{Field: "title", Message: "Title is required"},
	}, auth.FieldErrors(CreateIssuePayload{}.Validate()))

	err := CreateIssuePayload{Title: "t", Description: "d", OrderID: "42"}.Validate()
	assert.Equal(t, []auth.FieldError{
		{Field: "order_id", Message: "Order ID must be a valid id"},
	}, auth.FieldErrors(err))

	assert.NoError(t, CreateIssuePayload{Title: "t", Description: "d", OrderID: uuid.NewString()}.Validate())
}

func TestUpdateIssuePayload(t *testing.T) {
	bogus := "escalated"
	err := UpdateIssuePayload{Status: &bogus}.Validate()
	assert.Equal(t, []auth.FieldError{
		{Field: "status", Message: "Status must be one of open, in-progress, resolved, closed"},
	}, auth.FieldErrors(err))

	for _, s := range Statuses() {
		raw := string(s)
		p := UpdateIssuePayload{Status: &raw}
		require.NoError(t, p.Validate())
		changes := p.changes()
		require.NotNil(t, changes.Status)
		assert.Equal(t, s, *changes.Status)
	}
}
