package handlers

import (
	"carrental/internal/common"
	"carrental/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, common.ErrMissingToken
	}
	return id, nil
}

func currentUser(c echo.Context) (uuid.UUID, models.Role, error) {
	id, err := currentUserID(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	role, _ := common.GetUserRoleFromContext(c.Request().Context())
	return id, role, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := common.ValidateUUID(c.Param(name), name)
	return id, withField(err, name)
}
