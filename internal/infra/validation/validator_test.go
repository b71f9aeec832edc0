package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"hotelbook/internal/domain/shared/apperr"
)

type sample struct {
	BookingID string `validate:"required"`
	Amount    int64  `validate:"gt=0"`
	Option    string `validate:"omitempty,oneof=full partial"`
}

func TestValidator(t *testing.T) {
	v := New()
	ctx := context.Background()

	assert.NoError(t, v.Validate(ctx, sample{BookingID: "b-1", Amount: 10}))
	assert.NoError(t, v.Validate(ctx, "not a struct"))
	assert.NoError(t, v.Validate(ctx, (*sample)(nil)))

	err := v.Validate(ctx, &sample{Amount: 0, Option: "monthly"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "BookingID is required")
	assert.Contains(t, err.Error(), "Option must be one of [full partial]")
}
