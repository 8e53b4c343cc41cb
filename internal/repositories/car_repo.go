package repositories

import (
	"context"
	"errors"
	"fmt"

	"carrental/internal/common"
	"carrental/internal/models"
	"carrental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	// GetByIDForUpdate locks the car row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Car, error)
	List(ctx context.Context) ([]*models.Car, error)
	ListAvailable(ctx context.Context) ([]*models.Car, error)
	Update(ctx context.Context, car *models.Car) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	SetImage(ctx context.Context, id uuid.UUID, imageRef string) error
	FindNearby(ctx context.Context, q models.NearbyQuery) ([]*models.CarWithDistance, error)
}

type carRepo struct {
	db database.Querier
}

func NewCarRepo(db database.Querier) CarRepository {
	return &carRepo{db: db}
}

const carColumns = `id, brand, model, year, price_per_day, is_available, description, image_url,
		ST_Y(location::geometry) AS latitude, ST_X(location::geometry) AS longitude, created_at, updated_at`

func scanCar(row pgx.Row, extra ...any) (*models.Car, error) {
	car := &models.Car{}
	dest := []any{
		&car.ID, &car.Brand, &car.Model, &car.Year, &car.PricePerDay, &car.IsAvailable,
		&car.Description, &car.ImageURL, &car.Latitude, &car.Longitude, &car.CreatedAt, &car.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return car, nil
}

func (r *carRepo) Create(ctx context.Context, car *models.Car) error {
	query := `
		INSERT INTO cars (id, brand, model, year, price_per_day, is_available, description, image_url, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ST_SetSRID(ST_MakePoint($9::float8, $10::float8), 4326)::geography, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return database.Conn(ctx, r.db).QueryRow(ctx, query,
		car.ID, car.Brand, car.Model, car.Year, car.PricePerDay, car.IsAvailable,
		car.Description, car.ImageURL, car.Longitude, car.Latitude,
	).Scan(&car.CreatedAt, &car.UpdatedAt)
}

func (r *carRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	car, err := scanCar(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("Car", id)
	}
	return car, err
}

func (r *carRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1 FOR UPDATE`
	car, err := scanCar(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("Car", id)
	}
	return car, err
}

func (r *carRepo) List(ctx context.Context) ([]*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars ORDER BY created_at DESC`
	return r.queryCars(ctx, query)
}

func (r *carRepo) ListAvailable(ctx context.Context) ([]*models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE is_available = true ORDER BY created_at DESC`
	return r.queryCars(ctx, query)
}

func (r *carRepo) queryCars(ctx context.Context, query string, args ...any) ([]*models.Car, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cars := make([]*models.Car, 0)
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

func (r *carRepo) Update(ctx context.Context, car *models.Car) error {
	query := `
		UPDATE cars
		SET brand = $1, model = $2, year = $3, price_per_day = $4, is_available = $5, description = $6, image_url = $7,
			location = ST_SetSRID(ST_MakePoint($8::float8, $9::float8), 4326)::geography, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		car.Brand, car.Model, car.Year, car.PricePerDay, car.IsAvailable, car.Description, car.ImageURL,
		car.Longitude, car.Latitude, car.ID,
	).Scan(&car.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFound("Car", car.ID)
	}
	return err
}

func (r *carRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cars WHERE id = $1`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("delete car %s: %w", id, common.ErrCarHasRentals)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("Car", id)
	}
	return nil
}

// SetAvailability only touches the availability flag. Setting the current
// value again is not an error.
func (r *carRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	query := `UPDATE cars SET is_available = $1, updated_at = NOW() WHERE id = $2`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, available, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("Car", id)
	}
	return nil
}

func (r *carRepo) SetImage(ctx context.Context, id uuid.UUID, imageRef string) error {
	query := `UPDATE cars SET image_url = $1, updated_at = NOW() WHERE id = $2`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, imageRef, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("Car", id)
	}
	return nil
}

// FindNearby returns available cars within the radius of the point,
// nearest first. Distances are geodesic meters on the WGS84 spheroid.
func (r *carRepo) FindNearby(ctx context.Context, q models.NearbyQuery) ([]*models.CarWithDistance, error) {
	query := `
		SELECT ` + carColumns + `,
			ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance_meters
		FROM cars
		WHERE is_available = true
			AND location IS NOT NULL
			AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY distance_meters ASC, id ASC
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, q.Latitude, q.Longitude, q.RadiusMeters())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cars := make([]*models.CarWithDistance, 0)
	for rows.Next() {
		var distance float64
		car, err := scanCar(rows, &distance)
		if err != nil {
			return nil, err
		}
		cars = append(cars, &models.CarWithDistance{Car: *car, DistanceMeters: distance})
	}
	return cars, rows.Err()
}
