package repositories

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"carrental/internal/common"
	"carrental/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var rentalColumnNames = []string{
	"id", "user_id", "car_id", "start_date", "end_date", "daily_rate", "total_cost", "status", "created_at", "updated_at",
}

var joinedColumnNames = append(append(append([]string{}, rentalColumnNames...),
	"c_id", "brand", "model", "year", "price_per_day", "is_available", "description", "image_url",
	"latitude", "longitude", "c_created_at", "c_updated_at"),
	"u_id", "email", "first_name", "last_name", "role", "u_created_at", "u_updated_at")

func rentalRowValues(r *models.Rental) []any {
	return []any{
		r.ID, r.UserID, r.CarID, r.StartDate.Time, r.EndDate.Time, r.DailyRate, r.TotalCost,
		string(r.Status), r.CreatedAt, r.UpdatedAt,
	}
}

func joinedRowValues(r *models.Rental, car *models.Car, user *models.User) []any {
	values := append(rentalRowValues(r), carRowValues(car)...)
	return append(values, user.ID, user.Email, user.FirstName, user.LastName, string(user.Role), user.CreatedAt, user.UpdatedAt)
}

type RentalRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    RentalRepository
	car     *models.Car
	user    *models.User
	rental  *models.Rental
	context context.Context
}

func (suite *RentalRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewRentalRepo(mock)
	suite.context = context.Background()

	suite.car = sampleCar()
	suite.user = sampleUser()
	now := time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)
	suite.rental = &models.Rental{
		ID:        uuid.New(),
		UserID:    suite.user.ID,
		CarID:     suite.car.ID,
		StartDate: models.MustParseDate("2025-03-01"),
		EndDate:   models.MustParseDate("2025-03-07"),
		DailyRate: 50.00,
		TotalCost: 300.00,
		Status:    models.RentalStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (suite *RentalRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestRentalRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RentalRepoTestSuite))
}

func (suite *RentalRepoTestSuite) TestCreate_Success() {
	r := suite.rental
	suite.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO rentals`)).
		WithArgs(r.ID, r.UserID, r.CarID, r.StartDate.Time, r.EndDate.Time, 50.00, 300.00, "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(r.CreatedAt, r.UpdatedAt))

	assert.NoError(suite.T(), suite.repo.Create(suite.context, r))
}

func (suite *RentalRepoTestSuite) TestGetByID_ResolvesCarAndUser() {
	r := suite.rental
	suite.mock.ExpectQuery(regexp.QuoteMeta(`JOIN cars c ON c.id = r.car_id JOIN users u ON u.id = r.user_id WHERE r.id = $1`)).
		WithArgs(r.ID).
		WillReturnRows(pgxmock.NewRows(joinedColumnNames).AddRow(joinedRowValues(r, suite.car, suite.user)...))

	got, err := suite.repo.GetByID(suite.context, r.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RentalStatusPending, got.Status)
	assert.Equal(suite.T(), "2025-03-01", got.StartDate.String())
	require.NotNil(suite.T(), got.Car)
	require.NotNil(suite.T(), got.User)
	assert.Equal(suite.T(), suite.car.ID, got.Car.ID)
	assert.Equal(suite.T(), models.RoleUser, got.User.Role)
	assert.Empty(suite.T(), got.User.PasswordHash)
}

func (suite *RentalRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE r.id = $1`)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RentalRepoTestSuite) TestGetByIDForUpdate_LocksRow() {
	r := suite.rental
	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = $1 FOR UPDATE`)).
		WithArgs(r.ID).
		WillReturnRows(pgxmock.NewRows(rentalColumnNames).AddRow(rentalRowValues(r)...))

	got, err := suite.repo.GetByIDForUpdate(suite.context, r.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), r.CarID, got.CarID)
	assert.Nil(suite.T(), got.Car)
}

func (suite *RentalRepoTestSuite) TestFindOverlapping_Found() {
	r := suite.rental
	start, end := models.MustParseDate("2025-03-05"), models.MustParseDate("2025-03-10")

	suite.mock.ExpectQuery(regexp.QuoteMeta(`AND NOT (end_date < $3 OR start_date > $4)`)).
		WithArgs(r.CarID, []string{"pending", "active"}, start.Time, end.Time).
		WillReturnRows(pgxmock.NewRows(rentalColumnNames).AddRow(rentalRowValues(r)...))

	got, err := suite.repo.FindOverlapping(suite.context, r.CarID, models.BlockingStatuses, start, end)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got)
	assert.Equal(suite.T(), r.ID, got.ID)
}

func (suite *RentalRepoTestSuite) TestFindOverlapping_None() {
	carID := uuid.New()
	start, end := models.MustParseDate("2025-03-08"), models.MustParseDate("2025-03-10")

	suite.mock.ExpectQuery(regexp.QuoteMeta(`status = ANY($2)`)).
		WithArgs(carID, []string{"pending", "active"}, start.Time, end.Time).
		WillReturnRows(pgxmock.NewRows(rentalColumnNames))

	got, err := suite.repo.FindOverlapping(suite.context, carID, models.BlockingStatuses, start, end)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), got)
}

func (suite *RentalRepoTestSuite) TestUpdateStatus() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`UPDATE rentals SET status = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("completed", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.UpdateStatus(suite.context, id, models.RentalStatusCompleted))
}

func (suite *RentalRepoTestSuite) TestUpdateStatus_NotFound() {
	id := uuid.New()
	suite.mock.ExpectExec(regexp.QuoteMeta(`UPDATE rentals SET status`)).
		WithArgs("cancelled", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateStatus(suite.context, id, models.RentalStatusCancelled)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *RentalRepoTestSuite) TestListByUser() {
	r := suite.rental
	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE r.user_id = $1 ORDER BY r.created_at DESC`)).
		WithArgs(r.UserID).
		WillReturnRows(pgxmock.NewRows(joinedColumnNames).AddRow(joinedRowValues(r, suite.car, suite.user)...))

	rentals, err := suite.repo.ListByUser(suite.context, r.UserID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), rentals, 1)
}

func (suite *RentalRepoTestSuite) TestList_WithFilters() {
	r := suite.rental
	carID := r.CarID
	suite.mock.ExpectQuery(`FROM "rentals" AS "r" INNER JOIN "cars" AS "c"`).
		WithArgs("pending", "active", carID.String()).
		WillReturnRows(pgxmock.NewRows(joinedColumnNames).AddRow(joinedRowValues(r, suite.car, suite.user)...))

	rentals, err := suite.repo.List(suite.context, models.RentalFilter{
		Statuses: []models.RentalStatus{models.RentalStatusPending, models.RentalStatusActive},
		CarID:    &carID,
	})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), rentals, 1)
}

func (suite *RentalRepoTestSuite) TestActivateDue() {
	active := *suite.rental
	active.Status = models.RentalStatusActive
	today := models.MustParseDate("2025-03-01")

	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $2 AND start_date <= $3`)).
		WithArgs("active", "pending", today.Time).
		WillReturnRows(pgxmock.NewRows(rentalColumnNames).AddRow(rentalRowValues(&active)...))

	rentals, err := suite.repo.ActivateDue(suite.context, today)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rentals, 1)
	assert.Equal(suite.T(), models.RentalStatusActive, rentals[0].Status)
}

func TestBuildRentalListQuery(t *testing.T) {
	userID := uuid.New()

	query, args, err := buildRentalListQuery(models.RentalFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
	assert.True(t, strings.HasSuffix(query, `ORDER BY "r"."created_at" DESC`), query)

	query, args, err = buildRentalListQuery(models.RentalFilter{
		Statuses: []models.RentalStatus{models.RentalStatusCompleted},
		UserID:   &userID,
	})
	require.NoError(t, err)
	assert.Contains(t, query, `"r"."status" IN ($1)`)
	assert.Contains(t, query, `"r"."user_id" = $2`)
	assert.Equal(t, []any{"completed", userID.String()}, args)
}
