package common

import (
	"context"
	"slices"
	"strings"
	"time"

	"carrental/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	UserEmailKey contextKey = "user_email"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// WithUser stores the authenticated principal on ctx.
func WithUser(ctx context.Context, id uuid.UUID, role models.Role, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return context.WithValue(ctx, UserEmailKey, email)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRoleFromContext extracts the user role from the request context
func GetUserRoleFromContext(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(models.Role)
	return role, ok
}

// IsAdmin reports whether role may act on resources it does not own.
func IsAdmin(role models.Role) bool {
	return slices.Contains(models.AdminRoles, role)
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, Validation("%s is required", fieldName)
	}

	if len(idStr) != 36 {
		return uuid.Nil, Validation("%s must be exactly 36 characters (including hyphens)", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, Validation("%s is not a valid UUID", fieldName)
	}

	return id, nil
}

// ValidateDate parses a required YYYY-MM-DD field.
func ValidateDate(value, fieldName string) (models.Date, error) {
	if strings.TrimSpace(value) == "" {
		return models.Date{}, Validation("%s is required", fieldName)
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, Validation("%s must be in YYYY-MM-DD format", fieldName)
	}
	return d, nil
}

// ValidateCoordinates checks WGS84 bounds. NaN fails every bound.
func ValidateCoordinates(lat, lng float64) error {
	if !(lat >= -90 && lat <= 90) || !(lng >= -180 && lng <= 180) {
		return ErrInvalidCoordinates
	}
	return nil
}

// ValidateRadius accepts only the supported nearby search radii.
func ValidateRadius(radiusKm int) error {
	if !slices.Contains(models.AllowedRadiiKm, radiusKm) {
		return ErrInvalidRadius
	}
	return nil
}

// ValidateCarYear accepts model years from 1900 to next year.
func ValidateCarYear(year int) error {
	maxYear := time.Now().Year() + 1
	if year < 1900 || year > maxYear {
		return Validation("year must be between 1900 and %d", maxYear)
	}
	return nil
}

// ValidatePositiveFloat validates positive float values with upper bounds
func ValidatePositiveFloat(value float64, fieldName string, maxValue float64) error {
	if value <= 0 {
		return Validation("%s must be positive", fieldName)
	}
	if value > maxValue {
		return Validation("%s cannot exceed %.2f", fieldName, maxValue)
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string, maxLength int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return Validation("%s is required", fieldName)
	}
	if len(value) > maxLength {
		return Validation("%s cannot exceed %d characters", fieldName, maxLength)
	}
	return nil
}

// ValidateEmail performs a shallow shape check on an email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return Validation("email must be a valid email address")
	}
	return nil
}

// ParseStatusList parses a comma separated list of rental statuses.
func ParseStatusList(raw string) ([]models.RentalStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []models.RentalStatus
	for _, part := range strings.Split(raw, ",") {
		st, ok := models.ParseRentalStatus(strings.ToLower(strings.TrimSpace(part)))
		if !ok {
			return nil, Validation("status must be one of: pending, active, completed, cancelled")
		}
		out = append(out, st)
	}
	return out, nil
}
