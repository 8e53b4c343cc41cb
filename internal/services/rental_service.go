package services

import (
	"context"
	"fmt"
	"log/slog"

	"carrental/internal/caching"
	"carrental/internal/common"
	"carrental/internal/events"
	"carrental/internal/logger"
	"carrental/internal/models"
	"carrental/internal/repositories"
	"carrental/pkg/database"

	"github.com/google/uuid"
)

type RentalService interface {
	// Create books a car for the renter. The car row stays locked from the
	// availability check until the rental is written.
	Create(ctx context.Context, userID uuid.UUID, in *models.CreateRentalInput) (*models.Rental, error)
	GetByID(ctx context.Context, id, actorID uuid.UUID, actorRole models.Role) (*models.Rental, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error)
	List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error)
	ListActive(ctx context.Context) ([]*models.Rental, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole models.Role) (*models.Rental, error)
	// ActivateDue starts every pending rental whose start date has arrived
	// and returns how many were activated.
	ActivateDue(ctx context.Context, today models.Date) (int, error)
}

type rentalService struct {
	rentalRepo   repositories.RentalRepository
	carRepo      repositories.CarRepository
	txRunner     database.TxRunner
	cacheService caching.CacheService
	publisher    events.Publisher
	log          *slog.Logger
}

func NewRentalService(rentalRepo repositories.RentalRepository, carRepo repositories.CarRepository, txRunner database.TxRunner, cacheService caching.CacheService, publisher events.Publisher) RentalService {
	return &rentalService{
		rentalRepo:   rentalRepo,
		carRepo:      carRepo,
		txRunner:     txRunner,
		cacheService: cacheService,
		publisher:    publisher,
		log:          logger.WithService("rentals"),
	}
}

func (s *rentalService) Create(ctx context.Context, userID uuid.UUID, in *models.CreateRentalInput) (*models.Rental, error) {
	s.log.Debug("creating rental", "user_id", userID, "car_id", in.CarID, "start", in.StartDate, "end", in.EndDate)

	if !in.StartDate.Before(in.EndDate) {
		return nil, common.ErrInvalidDateRange
	}
	if models.DaysBetween(in.StartDate, in.EndDate) > models.MaxRentalDays {
		return nil, common.ErrRentalTooLong
	}

	var rental *models.Rental
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		car, err := s.carRepo.GetByIDForUpdate(ctx, in.CarID)
		if err != nil {
			return err
		}

		if !car.IsAvailable {
			s.log.Warn("car not available", "car_id", car.ID)
			return fmt.Errorf("book car %s: %w", car.ID, common.ErrCarUnavailable)
		}

		conflict, err := s.rentalRepo.FindOverlapping(ctx, car.ID, models.BlockingStatuses, in.StartDate, in.EndDate)
		if err != nil {
			return fmt.Errorf("check overlapping rentals: %w", err)
		}
		if conflict != nil {
			s.log.Warn("rental conflict", "car_id", car.ID, "conflicting_rental_id", conflict.ID,
				"conflict_start", conflict.StartDate, "conflict_end", conflict.EndDate)
			return fmt.Errorf("book car %s: %w", car.ID, common.ErrBookingConflict)
		}

		days := models.DaysBetween(in.StartDate, in.EndDate)
		rental = &models.Rental{
			ID:        uuid.New(),
			UserID:    userID,
			CarID:     car.ID,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			DailyRate: car.PricePerDay,
			TotalCost: models.RentalCost(car.PricePerDay, days),
			Status:    models.RentalStatusPending,
		}

		if err := s.carRepo.SetAvailability(ctx, car.ID, false); err != nil {
			return fmt.Errorf("reserve car %s: %w", car.ID, err)
		}
		if err := s.rentalRepo.Create(ctx, rental); err != nil {
			return fmt.Errorf("insert rental: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rental created", "rental_id", rental.ID, "car_id", rental.CarID, "total_cost", rental.TotalCost)
	return s.afterTransition(ctx, rental, events.RentalCreated)
}

func (s *rentalService) GetByID(ctx context.Context, id, actorID uuid.UUID, actorRole models.Role) (*models.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.UserID != actorID && !common.IsAdmin(actorRole) {
		return nil, common.Forbidden("you can only view your own rentals")
	}
	return rental, nil
}

func (s *rentalService) ListMine(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error) {
	return s.rentalRepo.ListByUser(ctx, userID)
}

func (s *rentalService) List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	return s.rentalRepo.List(ctx, filter)
}

func (s *rentalService) ListActive(ctx context.Context) ([]*models.Rental, error) {
	return s.rentalRepo.List(ctx, models.RentalFilter{Statuses: models.BlockingStatuses})
}

// Complete releases the car. Callers must already have checked the admin role.
func (s *rentalService) Complete(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental *models.Rental
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rental, err = s.rentalRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		switch rental.Status {
		case models.RentalStatusCompleted:
			return fmt.Errorf("complete rental %s: %w", id, common.ErrAlreadyCompleted)
		case models.RentalStatusCancelled:
			return common.InvalidTransition("cannot complete a cancelled rental")
		}

		return s.release(ctx, rental, models.RentalStatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rental completed", "rental_id", id, "car_id", rental.CarID)
	return s.afterTransition(ctx, rental, events.RentalCompleted)
}

// Cancel is allowed for the renter and for admins, and only while pending.
func (s *rentalService) Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole models.Role) (*models.Rental, error) {
	var rental *models.Rental
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rental, err = s.rentalRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if rental.UserID != actorID && !common.IsAdmin(actorRole) {
			s.log.Warn("cancel forbidden", "rental_id", id, "actor_id", actorID)
			return common.Forbidden("you can only cancel your own rentals")
		}
		if rental.Status != models.RentalStatusPending {
			return common.InvalidTransition("only pending rentals can be cancelled, rental is %s", rental.Status)
		}

		return s.release(ctx, rental, models.RentalStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rental cancelled", "rental_id", id, "car_id", rental.CarID, "actor_id", actorID)
	return s.afterTransition(ctx, rental, events.RentalCancelled)
}

func (s *rentalService) ActivateDue(ctx context.Context, today models.Date) (int, error) {
	activated, err := s.rentalRepo.ActivateDue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("activate due rentals: %w", err)
	}
	for _, rental := range activated {
		s.publish(ctx, events.RentalActivated, rental)
	}
	if len(activated) > 0 {
		s.log.Info("rentals activated", "count", len(activated), "date", today)
	}
	return len(activated), nil
}

// release writes the terminal status and frees the car in the caller's transaction.
func (s *rentalService) release(ctx context.Context, rental *models.Rental, status models.RentalStatus) error {
	if err := s.rentalRepo.UpdateStatus(ctx, rental.ID, status); err != nil {
		return fmt.Errorf("update rental status: %w", err)
	}
	if err := s.carRepo.SetAvailability(ctx, rental.CarID, true); err != nil {
		return fmt.Errorf("release car %s: %w", rental.CarID, err)
	}
	rental.Status = status
	return nil
}

// afterTransition runs once the transaction has committed: it drops the
// cached car, announces the change and re-reads the rental with associations.
func (s *rentalService) afterTransition(ctx context.Context, rental *models.Rental, eventType string) (*models.Rental, error) {
	if err := s.cacheService.DeleteCar(ctx, rental.CarID); err != nil {
		logger.ExternalServiceResult(s.log, "redis", "delete_car", err, "car_id", rental.CarID)
	}
	s.publish(ctx, eventType, rental)
	return s.rentalRepo.GetByID(ctx, rental.ID)
}

func (s *rentalService) publish(ctx context.Context, eventType string, rental *models.Rental) {
	if err := s.publisher.PublishRentalEvent(ctx, events.NewRentalEvent(eventType, rental)); err != nil {
		logger.ExternalServiceResult(s.log, "rabbitmq", "publish", err, "type", eventType, "rental_id", rental.ID)
	}
}
