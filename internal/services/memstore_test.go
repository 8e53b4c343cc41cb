package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"carrental/internal/common"
	"carrental/internal/models"

	"github.com/google/uuid"
)

// memStore backs in-memory car and rental repositories for workflow tests.
type memStore struct {
	mu      sync.Mutex
	cars    map[uuid.UUID]models.Car
	rentals map[uuid.UUID]models.Rental
	order   []uuid.UUID
}

func newMemStore(cars ...*models.Car) *memStore {
	s := &memStore{cars: map[uuid.UUID]models.Car{}, rentals: map[uuid.UUID]models.Rental{}}
	for _, c := range cars {
		s.cars[c.ID] = *c
	}
	return s
}

// serialTx stands in for the row lock: one transaction at a time.
type serialTx struct {
	mu sync.Mutex
}

func (t *serialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type memCars struct{ *memStore }

func (s memCars) Create(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cars[car.ID] = *car
	return nil
}

func (s memCars) GetByID(_ context.Context, id uuid.UUID) (*models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok {
		return nil, common.NotFound("Car", id)
	}
	return &car, nil
}

func (s memCars) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	return s.GetByID(ctx, id)
}

func (s memCars) List(context.Context) ([]*models.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Car, 0, len(s.cars))
	for _, c := range s.cars {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

func (s memCars) ListAvailable(ctx context.Context) ([]*models.Car, error) {
	all, _ := s.List(ctx)
	out := make([]*models.Car, 0, len(all))
	for _, c := range all {
		if c.IsAvailable {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memCars) Update(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cars[car.ID]; !ok {
		return common.NotFound("Car", car.ID)
	}
	s.cars[car.ID] = *car
	return nil
}

func (s memCars) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cars[id]; !ok {
		return common.NotFound("Car", id)
	}
	delete(s.cars, id)
	return nil
}

func (s memCars) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok {
		return common.NotFound("Car", id)
	}
	car.IsAvailable = available
	s.cars[id] = car
	return nil
}

func (s memCars) SetImage(_ context.Context, id uuid.UUID, imageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.cars[id]
	if !ok {
		return common.NotFound("Car", id)
	}
	car.ImageURL = &imageRef
	s.cars[id] = car
	return nil
}

func (s memCars) FindNearby(context.Context, models.NearbyQuery) ([]*models.CarWithDistance, error) {
	return []*models.CarWithDistance{}, nil
}

type memRentals struct{ *memStore }

func (s memRentals) Create(_ context.Context, rental *models.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentals[rental.ID] = *rental
	s.order = append(s.order, rental.ID)
	return nil
}

func (s memRentals) GetByID(_ context.Context, id uuid.UUID) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental, ok := s.rentals[id]
	if !ok {
		return nil, common.NotFound("Rental", id)
	}
	car := s.cars[rental.CarID]
	rental.Car = &car
	return &rental, nil
}

func (s memRentals) GetByIDForUpdate(_ context.Context, id uuid.UUID) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental, ok := s.rentals[id]
	if !ok {
		return nil, common.NotFound("Rental", id)
	}
	return &rental, nil
}

func (s memRentals) FindOverlapping(_ context.Context, carID uuid.UUID, statuses []models.RentalStatus, start, end models.Date) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		r := s.rentals[id]
		if r.CarID != carID || !containsStatus(statuses, r.Status) {
			continue
		}
		if models.RangesOverlap(r.StartDate, r.EndDate, start, end) {
			return &r, nil
		}
	}
	return nil, nil
}

func (s memRentals) UpdateStatus(_ context.Context, id uuid.UUID, status models.RentalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[id]
	if !ok {
		return common.NotFound("Rental", id)
	}
	r.Status = status
	s.rentals[id] = r
	return nil
}

func (s memRentals) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error) {
	all, _ := s.List(ctx, models.RentalFilter{})
	out := make([]*models.Rental, 0)
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s memRentals) List(_ context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Rental, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.rentals[s.order[i]]
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.Status) {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

func (s memRentals) ActivateDue(_ context.Context, today models.Date) ([]*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Rental, 0)
	for _, id := range s.order {
		r := s.rentals[id]
		if r.Status == models.RentalStatusPending && !r.StartDate.After(today) {
			r.Status = models.RentalStatusActive
			s.rentals[id] = r
			out = append(out, &r)
		}
	}
	return out, nil
}

// blocking returns pending and active rentals of a car sorted by start date.
func (s *memStore) blocking(carID uuid.UUID) []models.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rental
	for _, r := range s.rentals {
		if r.CarID == carID && r.Status.Blocking() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func containsStatus(statuses []models.RentalStatus, st models.RentalStatus) bool {
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

type noopCache struct{}

func (noopCache) GetCar(context.Context, uuid.UUID) (*models.Car, error) { return nil, nil }

func (noopCache) SetCar(context.Context, *models.Car, time.Duration) error { return nil }

func (noopCache) DeleteCar(context.Context, uuid.UUID) error { return nil }

func (noopCache) IsRateLimited(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (noopCache) Ping(context.Context) error { return nil }

func (noopCache) Close() error { return nil }
