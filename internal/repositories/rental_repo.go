package repositories

import (
	"context"
	"errors"
	"fmt"

	"carrental/internal/common"
	"carrental/internal/models"
	"carrental/pkg/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dialectPostgres = "postgres"

type RentalRepository interface {
	Create(ctx context.Context, rental *models.Rental) error
	// GetByID resolves the rental together with its car and renter.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	// GetByIDForUpdate locks the rental row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	// FindOverlapping returns one rental of the car in any of statuses whose
	// inclusive date range intersects [start, end], or nil when none exists.
	FindOverlapping(ctx context.Context, carID uuid.UUID, statuses []models.RentalStatus, start, end models.Date) (*models.Rental, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RentalStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error)
	List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error)
	// ActivateDue moves pending rentals starting on or before today to active.
	ActivateDue(ctx context.Context, today models.Date) ([]*models.Rental, error)
}

type rentalRepo struct {
	db database.Querier
}

func NewRentalRepo(db database.Querier) RentalRepository {
	return &rentalRepo{db: db}
}

const rentalColumns = `id, user_id, car_id, start_date, end_date, daily_rate, total_cost, status, created_at, updated_at`

const rentalJoinedColumns = `r.id, r.user_id, r.car_id, r.start_date, r.end_date, r.daily_rate, r.total_cost, r.status, r.created_at, r.updated_at,
		c.id, c.brand, c.model, c.year, c.price_per_day, c.is_available, c.description, c.image_url,
		ST_Y(c.location::geometry), ST_X(c.location::geometry), c.created_at, c.updated_at,
		u.id, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at`

const rentalJoins = `FROM rentals r
		JOIN cars c ON c.id = r.car_id
		JOIN users u ON u.id = r.user_id`

func rentalDest(rental *models.Rental, status *string) []any {
	return []any{
		&rental.ID, &rental.UserID, &rental.CarID, &rental.StartDate.Time, &rental.EndDate.Time,
		&rental.DailyRate, &rental.TotalCost, status, &rental.CreatedAt, &rental.UpdatedAt,
	}
}

func scanRental(row pgx.Row) (*models.Rental, error) {
	rental := &models.Rental{}
	var status string
	if err := row.Scan(rentalDest(rental, &status)...); err != nil {
		return nil, err
	}
	rental.Status = models.RentalStatus(status)
	return rental, nil
}

func scanRentalJoined(row pgx.Row) (*models.Rental, error) {
	rental := &models.Rental{Car: &models.Car{}, User: &models.User{}}
	car, user := rental.Car, rental.User
	var status, role string

	dest := rentalDest(rental, &status)
	dest = append(dest,
		&car.ID, &car.Brand, &car.Model, &car.Year, &car.PricePerDay, &car.IsAvailable,
		&car.Description, &car.ImageURL, &car.Latitude, &car.Longitude, &car.CreatedAt, &car.UpdatedAt,
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rental.Status = models.RentalStatus(status)
	user.Role = models.Role(role)
	return rental, nil
}

func collectRentals(rows pgx.Rows, scan func(pgx.Row) (*models.Rental, error)) ([]*models.Rental, error) {
	defer rows.Close()

	rentals := make([]*models.Rental, 0)
	for rows.Next() {
		rental, err := scan(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, rows.Err()
}

func statusStrings(statuses []models.RentalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *rentalRepo) Create(ctx context.Context, rental *models.Rental) error {
	query := `
		INSERT INTO rentals (id, user_id, car_id, start_date, end_date, daily_rate, total_cost, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return database.Conn(ctx, r.db).QueryRow(ctx, query,
		rental.ID, rental.UserID, rental.CarID, rental.StartDate.Time, rental.EndDate.Time,
		rental.DailyRate, rental.TotalCost, string(rental.Status),
	).Scan(&rental.CreatedAt, &rental.UpdatedAt)
}

func (r *rentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	query := `SELECT ` + rentalJoinedColumns + ` ` + rentalJoins + ` WHERE r.id = $1`
	rental, err := scanRentalJoined(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("Rental", id)
	}
	return rental, err
}

func (r *rentalRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE`
	rental, err := scanRental(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NotFound("Rental", id)
	}
	return rental, err
}

func (r *rentalRepo) FindOverlapping(ctx context.Context, carID uuid.UUID, statuses []models.RentalStatus, start, end models.Date) (*models.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE car_id = $1
			AND status = ANY($2)
			AND NOT (end_date < $3 OR start_date > $4)
		ORDER BY start_date ASC
		LIMIT 1
	`
	rental, err := scanRental(database.Conn(ctx, r.db).QueryRow(ctx, query, carID, statusStrings(statuses), start.Time, end.Time))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rental, err
}

func (r *rentalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RentalStatus) error {
	query := `UPDATE rentals SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("Rental", id)
	}
	return nil
}

func (r *rentalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Rental, error) {
	query := `SELECT ` + rentalJoinedColumns + ` ` + rentalJoins + ` WHERE r.user_id = $1 ORDER BY r.created_at DESC`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectRentals(rows, scanRentalJoined)
}

func (r *rentalRepo) List(ctx context.Context, filter models.RentalFilter) ([]*models.Rental, error) {
	query, args, err := buildRentalListQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRentals(rows, scanRentalJoined)
}

func buildRentalListQuery(filter models.RentalFilter) (string, []any, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From(goqu.T("rentals").As("r")).
		Join(goqu.T("cars").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("r.car_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		Select(goqu.L(rentalJoinedColumns)).
		Order(goqu.I("r.created_at").Desc()).
		Prepared(true)

	var where []goqu.Expression
	if len(filter.Statuses) > 0 {
		where = append(where, goqu.I("r.status").In(statusStrings(filter.Statuses)))
	}
	if filter.UserID != nil {
		where = append(where, goqu.I("r.user_id").Eq(filter.UserID.String()))
	}
	if filter.CarID != nil {
		where = append(where, goqu.I("r.car_id").Eq(filter.CarID.String()))
	}
	if len(where) > 0 {
		stmt = stmt.Where(where...)
	}

	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build rental list query: %w", err)
	}
	return query, args, nil
}

func (r *rentalRepo) ActivateDue(ctx context.Context, today models.Date) ([]*models.Rental, error) {
	query := `
		UPDATE rentals
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND start_date <= $3
		RETURNING ` + rentalColumns
	rows, err := database.Conn(ctx, r.db).Query(ctx, query,
		string(models.RentalStatusActive), string(models.RentalStatusPending), today.Time)
	if err != nil {
		return nil, err
	}
	return collectRentals(rows, scanRental)
}
