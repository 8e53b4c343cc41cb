package common

import (
	"context"
	"math"
	"testing"

	"carrental/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(40.7128, -74.0060))
	assert.NoError(t, ValidateCoordinates(-90, 180))
	assert.ErrorIs(t, ValidateCoordinates(90.0001, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, -180.5), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(math.NaN(), 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, math.NaN()), ErrInvalidCoordinates)
}

func TestValidateRadius(t *testing.T) {
	for _, r := range []int{5, 10, 15} {
		assert.NoError(t, ValidateRadius(r))
	}
	for _, r := range []int{0, 7, 20, -5} {
		assert.ErrorIs(t, ValidateRadius(r), ErrInvalidRadius)
	}
}

func TestValidateUUID(t *testing.T) {
	id := uuid.New()
	got, err := ValidateUUID(" "+id.String()+" ", "carId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ValidateUUID("", "carId")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ValidateUUID("not-a-uuid", "carId")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateDate(t *testing.T) {
	d, err := ValidateDate("2025-03-01", "startDate")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.String())

	_, err = ValidateDate("", "startDate")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ValidateDate("2025-13-01", "startDate")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseStatusList(t *testing.T) {
	got, err := ParseStatusList("pending, ACTIVE")
	require.NoError(t, err)
	assert.Equal(t, []models.RentalStatus{models.RentalStatusPending, models.RentalStatusActive}, got)

	got, err = ParseStatusList("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseStatusList("pending,returned")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserContext(t *testing.T) {
	id := uuid.New()
	ctx := WithUser(context.Background(), id, models.RoleAdmin, "a@b.co")

	gotID, ok := GetUserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	role, ok := GetUserRoleFromContext(ctx)
	require.True(t, ok)
	assert.True(t, IsAdmin(role))
	assert.False(t, IsAdmin(models.RoleUser))
	assert.True(t, IsAdmin(models.RoleSuperAdmin))
}
