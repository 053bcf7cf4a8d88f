package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// UsersTable is the table CreateUsersTable creates.
const UsersTable = "users"

// Factory seeds test rows through a handle
type Factory struct {
	h *dbunified.Handle
}

// New creates a new fixture factory
func New(h *dbunified.Handle) *Factory {
	return &Factory{h: h}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (f *Factory) run(t *testing.T, statement string, params any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := f.h.Run(ctx, statement, params); err != nil {
		t.Fatalf("fixtures: %v\nStatement: %s", err, statement)
	}
}

// ============================================================================
// User Fixtures
// ============================================================================

// User is a seeded users row. A nil Age is stored as NULL.
type User struct {
	Name string
	Age  any
}

// UserOpts customizes user creation
type UserOpts struct {
	Name string
	Age  any
}

// WithName sets the user name
func WithName(name string) func(*UserOpts) {
	return func(o *UserOpts) { o.Name = name }
}

// WithAge sets the user age
func WithAge(age int) func(*UserOpts) {
	return func(o *UserOpts) { o.Age = age }
}

// WithNullAge stores the age as NULL
func WithNullAge() func(*UserOpts) {
	return func(o *UserOpts) { o.Age = nil }
}

// CreateUsersTable creates the users table with portable column types.
func (f *Factory) CreateUsersTable(t *testing.T) {
	t.Helper()
	f.run(t, "CREATE TABLE "+UsersTable+" (name VARCHAR(64), age INTEGER)", nil)
}

// CreateUser inserts a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) User {
	t.Helper()

	o := &UserOpts{
		Name: fmt.Sprintf("user_%s", randomID()),
		Age:  20,
	}
	for _, fn := range opts {
		fn(o)
	}

	f.run(t, "INSERT INTO "+UsersTable+" (name, age) VALUES (%s, %s)", []any{o.Name, o.Age})
	return User{Name: o.Name, Age: o.Age}
}

// CreateUsers inserts n users with default values in one batch.
func (f *Factory) CreateUsers(t *testing.T, n int) []User {
	t.Helper()

	users := make([]User, n)
	rows := make([][]any, n)
	for i := range users {
		users[i] = User{Name: fmt.Sprintf("user_%s", randomID()), Age: 20 + i}
		rows[i] = []any{users[i].Name, users[i].Age}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	statement := "INSERT INTO " + UsersTable + " (name, age) VALUES (%s, %s)"
	if _, err := f.h.Run(ctx, statement, rows, dbunified.Batch(true)); err != nil {
		t.Fatalf("fixtures: failed to create users: %v", err)
	}
	return users
}
