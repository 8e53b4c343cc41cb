package handlers

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"carrental/internal/common"
	"carrental/internal/models"
	"carrental/internal/services"

	"github.com/labstack/echo/v4"
)

// CarHandlers handles HTTP requests for cars
type CarHandlers struct {
	carService     services.CarService
	maxUploadBytes int64
}

func NewCarHandlers(carService services.CarService, maxUploadBytes int64) *CarHandlers {
	return &CarHandlers{carService: carService, maxUploadBytes: maxUploadBytes}
}

// ListCars godoc
// @Summary List all cars
// @Tags cars
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Car
// @Router /cars [get]
func (h *CarHandlers) ListCars(c echo.Context) error {
	cars, err := h.carService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cars)
}

// ListAvailableCars godoc
// @Summary List cars that can be booked
// @Tags cars
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Car
// @Router /cars/available [get]
func (h *CarHandlers) ListAvailableCars(c echo.Context) error {
	cars, err := h.carService.ListAvailable(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cars)
}

// FindNearbyCars godoc
// @Summary Available cars within a radius, nearest first
// @Tags cars
// @Produce json
// @Security BearerAuth
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param radius query int true "Radius in km" Enums(5, 10, 15)
// @Success 200 {array} models.CarWithDistance
// @Failure 400 {object} common.ErrorResponse
// @Router /cars/nearby [get]
func (h *CarHandlers) FindNearbyCars(c echo.Context) error {
	lat, err := queryFloat(c, "latitude")
	if err != nil {
		return err
	}
	lng, err := queryFloat(c, "longitude")
	if err != nil {
		return err
	}
	radius, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("radius")))
	if err != nil {
		return withField(common.ErrInvalidRadius, "radius")
	}

	cars, err := h.carService.FindNearby(c.Request().Context(), models.NearbyQuery{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cars)
}

// GetCar godoc
// @Summary Get a car
// @Tags cars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Success 200 {object} models.Car
// @Failure 404 {object} common.ErrorResponse
// @Router /cars/{id} [get]
func (h *CarHandlers) GetCar(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	car, err := h.carService.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, car)
}

// GetCarImageURL godoc
// @Summary Presigned URL for the car image
// @Tags cars
// @Produce json
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Success 200 {object} models.ImageURLResponse
// @Router /cars/{id}/image-url [get]
func (h *CarHandlers) GetCarImageURL(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.carService.GetImageURL(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateCar godoc
// @Summary Add a car
// @Tags cars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateCarInput true "Car"
// @Success 201 {object} models.Car
// @Router /cars [post]
func (h *CarHandlers) CreateCar(c echo.Context) error {
	var req models.CreateCarInput
	if err := c.Bind(&req); err != nil {
		return err
	}
	car, err := h.carService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, car)
}

// UpdateCar godoc
// @Summary Partially update a car
// @Tags cars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Param body body models.UpdateCarInput true "Fields to change"
// @Success 200 {object} models.Car
// @Router /cars/{id} [patch]
func (h *CarHandlers) UpdateCar(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateCarInput
	if err := c.Bind(&req); err != nil {
		return err
	}
	car, err := h.carService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, car)
}

// DeleteCar godoc
// @Summary Delete a car without rentals
// @Tags cars
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Success 204
// @Failure 409 {object} common.ErrorResponse
// @Router /cars/{id} [delete]
func (h *CarHandlers) DeleteCar(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.carService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadCarImage godoc
// @Summary Upload the car image
// @Tags cars
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Param image formData file true "JPEG, PNG or WebP"
// @Success 200 {object} models.Car
// @Router /cars/{id}/image [post]
func (h *CarHandlers) UploadCarImage(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return withField(common.Validation("image file is required"), "image")
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return withField(common.Validation("image exceeds %d bytes", h.maxUploadBytes), "image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unable to read uploaded file").SetInternal(err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		buf := make([]byte, 512)
		n, _ := file.Read(buf)
		contentType = http.DetectContentType(buf[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	car, err := h.carService.UploadImage(c.Request().Context(), id, fileHeader.Filename, contentType, file, fileHeader.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, car)
}

func queryFloat(c echo.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, withField(common.Validation("%s is required", name), name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, withField(common.Validation("%s must be a number", name), name)
	}
	return v, nil
}
