package testhelpers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"carrental/internal/models"
	"carrental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const schemaFile = "migrations/0001_create_schema.sql"

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, 5)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := readSchema()
	if err != nil {
		pool.Close()
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	truncate := func() {
		if _, err := pool.Exec(ctx, `TRUNCATE rentals, cars, users CASCADE`); err != nil {
			t.Errorf("Failed to truncate tables: %v", err)
		}
	}
	truncate()

	return &TestDB{
		Pool: pool,
		Cleanup: func() {
			truncate()
			pool.Close()
		},
	}
}

// readSchema walks up from the working directory to the module root.
func readSchema() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			b, err := os.ReadFile(filepath.Join(dir, schemaFile))
			return string(b), err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("module root not found")
		}
		dir = parent
	}
}

// SeedUser inserts a user with password "password123".
func SeedUser(t *testing.T, db *TestDB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = db.Pool.QueryRow(context.Background(), query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, string(user.Role),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// SeedCar inserts an available car at the given coordinates.
func SeedCar(t *testing.T, db *TestDB, brand string, pricePerDay, lat, lng float64) *models.Car {
	t.Helper()

	car := &models.Car{
		ID:          uuid.New(),
		Brand:       brand,
		Model:       "Test",
		Year:        2022,
		PricePerDay: pricePerDay,
		IsAvailable: true,
		Latitude:    &lat,
		Longitude:   &lng,
	}
	query := `
		INSERT INTO cars (id, brand, model, year, price_per_day, is_available, location)
		VALUES ($1, $2, $3, $4, $5, true, ST_SetSRID(ST_MakePoint($6::float8, $7::float8), 4326)::geography)
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(context.Background(), query,
		car.ID, car.Brand, car.Model, car.Year, car.PricePerDay, lng, lat,
	).Scan(&car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test car: %v", err)
	}
	return car
}
