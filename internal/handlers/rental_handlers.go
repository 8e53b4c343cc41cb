package handlers

import (
	"net/http"
	"strings"

	"carrental/internal/common"
	"carrental/internal/models"
	"carrental/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RentalHandlers handles HTTP requests for rentals
type RentalHandlers struct {
	rentalService services.RentalService
}

func NewRentalHandlers(rentalService services.RentalService) *RentalHandlers {
	return &RentalHandlers{rentalService: rentalService}
}

// CreateRentalRequest is the booking payload. Dates are YYYY-MM-DD.
type CreateRentalRequest struct {
	CarID     string `json:"carId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (r *CreateRentalRequest) toInput() (*models.CreateRentalInput, error) {
	carID, err := common.ValidateUUID(r.CarID, "carId")
	if err != nil {
		return nil, withField(err, "carId")
	}
	start, err := common.ValidateDate(r.StartDate, "startDate")
	if err != nil {
		return nil, withField(err, "startDate")
	}
	end, err := common.ValidateDate(r.EndDate, "endDate")
	if err != nil {
		return nil, withField(err, "endDate")
	}
	return &models.CreateRentalInput{CarID: carID, StartDate: start, EndDate: end}, nil
}

// CreateRental godoc
// @Summary Book a car
// @Tags rentals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateRentalRequest true "Booking"
// @Success 201 {object} models.Rental
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse
// @Router /rentals [post]
func (h *RentalHandlers) CreateRental(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateRentalRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	rental, err := h.rentalService.Create(c.Request().Context(), userID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rental)
}

// ListMyRentals godoc
// @Summary Rentals of the current user, newest first
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Rental
// @Router /rentals/my [get]
func (h *RentalHandlers) ListMyRentals(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	rentals, err := h.rentalService.ListMine(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rentals)
}

// ListRentals godoc
// @Summary All rentals, optionally filtered
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param userId query string false "Renter"
// @Param carId query string false "Car"
// @Success 200 {array} models.Rental
// @Router /rentals [get]
func (h *RentalHandlers) ListRentals(c echo.Context) error {
	filter, err := parseRentalFilter(c)
	if err != nil {
		return err
	}
	rentals, err := h.rentalService.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rentals)
}

// ListActiveRentals godoc
// @Summary Pending and active rentals
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Rental
// @Router /rentals/active [get]
func (h *RentalHandlers) ListActiveRentals(c echo.Context) error {
	rentals, err := h.rentalService.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rentals)
}

// GetRental godoc
// @Summary Get a rental
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rental ID"
// @Success 200 {object} models.Rental
// @Failure 403 {object} common.ErrorResponse
// @Router /rentals/{id} [get]
func (h *RentalHandlers) GetRental(c echo.Context) error {
	userID, role, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	rental, err := h.rentalService.GetByID(c.Request().Context(), id, userID, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rental)
}

// CompleteRental godoc
// @Summary Complete a rental and release the car
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rental ID"
// @Success 200 {object} models.Rental
// @Failure 400 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse
// @Router /rentals/{id}/complete [patch]
func (h *RentalHandlers) CompleteRental(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	rental, err := h.rentalService.Complete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rental)
}

// CancelRental godoc
// @Summary Cancel a pending rental
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rental ID"
// @Success 200 {object} models.Rental
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /rentals/{id}/cancel [patch]
func (h *RentalHandlers) CancelRental(c echo.Context) error {
	userID, role, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	rental, err := h.rentalService.Cancel(c.Request().Context(), id, userID, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rental)
}

func parseRentalFilter(c echo.Context) (models.RentalFilter, error) {
	var filter models.RentalFilter

	statuses, err := common.ParseStatusList(c.QueryParam("status"))
	if err != nil {
		return filter, withField(err, "status")
	}
	filter.Statuses = statuses

	optionalID := func(name string) (*uuid.UUID, error) {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			return nil, nil
		}
		id, err := common.ValidateUUID(raw, name)
		if err != nil {
			return nil, withField(err, name)
		}
		return &id, nil
	}
	if filter.UserID, err = optionalID("userId"); err != nil {
		return filter, err
	}
	if filter.CarID, err = optionalID("carId"); err != nil {
		return filter, err
	}
	return filter, nil
}
