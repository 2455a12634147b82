package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/database"
)

// TestDatabaseSetup owns a throwaway schema with the tables the analytics
// repositories read.
type TestDatabaseSetup struct {
	DB     *database.DB
	admin  *database.DB
	schema string
}

const schemaDDL = `
CREATE TABLE users (
	id    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL,
	role  TEXT NOT NULL
);
CREATE TABLE employees (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id           UUID REFERENCES users(id),
	employee_code     TEXT NOT NULL,
	full_name         TEXT NOT NULL,
	employment_status TEXT NOT NULL,
	hire_date         DATE NOT NULL DEFAULT CURRENT_DATE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at        TIMESTAMPTZ
);
CREATE TABLE attendances (
	id                    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_id           UUID NOT NULL REFERENCES employees(id),
	date                  DATE NOT NULL,
	clock_in              TIMESTAMPTZ,
	clock_out             TIMESTAMPTZ,
	work_hours_in_minutes INT,
	overtime_minutes      INT,
	work_description      TEXT,
	status                TEXT NOT NULL,
	approved_at           TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// NewTestDatabase skips the test unless TEST_DATABASE_URL is set.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	admin, err := database.NewPostgreSQLDB(dsn, database.PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	schema := fmt.Sprintf("perf_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := database.NewPostgreSQLDB(dsn+sep+"search_path="+schema, database.PoolOptions{MaxConns: 4})
	if err != nil {
		admin.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
		t.Fatalf("failed to connect with schema: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db, admin: admin, schema: schema}
	t.Cleanup(setup.Close)

	if _, err := db.Exec(ctx, schemaDDL); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return setup
}

// Close drops the schema and closes both pools
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
	s.admin.Exec(context.Background(), "DROP SCHEMA "+s.schema+" CASCADE")
	s.admin.Close()
}

func (s *TestDatabaseSetup) InsertEmployee(t *testing.T, code, name, role, status string) string {
	t.Helper()
	ctx := context.Background()
	var userID, id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO users (email, role) VALUES ($1, $2) RETURNING id::text`,
		strings.ToLower(code)+"@example.com", role,
	).Scan(&userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	err = s.DB.QueryRow(ctx,
		`INSERT INTO employees (user_id, employee_code, full_name, employment_status)
		 VALUES ($1, $2, $3, $4) RETURNING id::text`,
		userID, code, name, status,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	return id
}

func (s *TestDatabaseSetup) InsertAttendance(t *testing.T, employeeID string, day time.Time, minutes, overtime int, status, description string) {
	t.Helper()
	clockIn := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(time.Duration(minutes) * time.Minute)
	_, err := s.DB.Exec(context.Background(),
		`INSERT INTO attendances (employee_id, date, clock_in, clock_out, work_hours_in_minutes, overtime_minutes, work_description, status)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
		employeeID, day, clockIn, clockOut, minutes, overtime, description, status,
	)
	if err != nil {
		t.Fatalf("insert attendance: %v", err)
	}
}
