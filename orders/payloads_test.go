package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/auth"
)

func TestCreateOrderPayload_Validate(t *testing.T) {
	err := CreateOrderPayload{}.Validate()
	assert.Equal(t, []auth.FieldError{
		{Field: "products", Message: "Products are required"},
		{Field: "total_price", Message: "Total price is required"},
	}, auth.FieldErrors(err))

	total := 10.0
	err = CreateOrderPayload{
		Products:   []LineItemPayload{{Product: "nope", Quantity: 0}},
		TotalPrice: &total,
	}.Validate()
	require.Error(t, err)
	fields := auth.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "products", fields[0].Field)
}

func TestLineItemPayload_Validate(t *testing.T) {
	assert.NoError(t, LineItemPayload{Product: uuid.NewString(), Quantity: 1}.Validate())

	err := LineItemPayload{Product: "nope", Quantity: -1}.Validate()
	assert.Equal(t, []auth.FieldError{
		{Field: "product", Message: "Product must be a valid id"},
		{Field: "quantity", Message: "Quantity must be at least 1"},
	}, auth.FieldErrors(err))
}

func TestUpdateOrderPayload_Changes(t *testing.T) {
	assert.NoError(t, UpdateOrderPayload{}.Validate())
	assert.Equal(t, Changes{}, UpdateOrderPayload{}.changes())

	id := uuid.New()
	items := []LineItemPayload{{Product: id.String(), Quantity: 2}}
	changes := UpdateOrderPayload{Products: &items}.changes()
	require.NotNil(t, changes.Products)
	assert.Equal(t, []LineItem{{Product: id, Quantity: 2}}, *changes.Products)
	assert.Nil(t, changes.TotalPrice)
}
