package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store/memstore"
)

func setup(t *testing.T, password string) *commandLine {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPasswordFunc = orig })

	return &commandLine{store: memstore.New(), cost: bcrypt.MinCost, out: &bytes.Buffer{}}
}

func TestRunUsage(t *testing.T) {
	cli := setup(t, "secret1")

	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", []string{"adminctl"}},
		{"unknown subcommand", []string{"adminctl", "lol"}},
		{"createadmin without email", []string{"adminctl", "createadmin", "-name", "Root"}},
		{"resetpassword without email", []string{"adminctl", "resetpassword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, cli.run(tt.args), errHelp)
		})
	}
}

func TestCreateAdmin(t *testing.T) {
	cli := setup(t, "rootpass")
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"adminctl", "createadmin", "-email", "Root@School.edu", "-name", "Root"}))

	admin, err := cli.store.Admins.GetByEmail(ctx, "root@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "Root", admin.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("rootpass")))

	err = cli.run([]string{"adminctl", "createadmin", "-email", "root@school.edu", "-name", "Again"})
	assert.EqualError(t, err, "an administrator with email root@school.edu already exists")
}

func TestCreateAdminShortPassword(t *testing.T) {
	cli := setup(t, "abc")
	err := cli.run([]string{"adminctl", "createadmin", "-email", "root@school.edu", "-name", "Root"})
	assert.EqualError(t, err, "password must be at least 6 characters")
}

func TestCreateAdminPromptError(t *testing.T) {
	cli := setup(t, "")
	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	err := cli.run([]string{"adminctl", "createadmin", "-email", "root@school.edu", "-name", "Root"})
	assert.EqualError(t, err, "no tty")
}

func TestResetPassword(t *testing.T) {
	cli := setup(t, "newpass1")
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, cli.store.Admins.Create(ctx, &shared.Admin{Name: "Root", Email: "root@school.edu", CreatedAt: now}))
	require.NoError(t, cli.store.Staff.Create(ctx, &shared.Staff{
		FirstName: "Alan", LastName: "Turing", Email: "alan@school.edu", Phone: "555-0400",
		Role: shared.StaffRoleTeacher, IsActive: true, CreatedAt: now,
	}))
	require.NoError(t, cli.store.Students.Create(ctx, &shared.Student{
		StudentID: "STU001", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100", CreatedAt: now,
	}))

	t.Run("Admin", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"adminctl", "resetpassword", "-email", "root@school.edu"}))
		admin, err := cli.store.Admins.GetByEmail(ctx, "root@school.edu")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("newpass1")))
	})

	t.Run("Staff", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"adminctl", "resetpassword", "-email", "alan@school.edu", "-role", "staff"}))
		staff, err := cli.store.Staff.GetByEmail(ctx, "alan@school.edu")
		require.NoError(t, err)
		assert.True(t, staff.MustChangePassword)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte("newpass1")))
	})

	t.Run("Student", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"adminctl", "resetpassword", "-email", "ada@example.com", "-role", "student"}))
		student, err := cli.store.Students.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("newpass1")))
	})

	t.Run("Unknown Account", func(t *testing.T) {
		err := cli.run([]string{"adminctl", "resetpassword", "-email", "ghost@school.edu", "-role", "staff"})
		assert.EqualError(t, err, "no staff with email ghost@school.edu")
	})

	t.Run("Unknown Role", func(t *testing.T) {
		err := cli.run([]string{"adminctl", "resetpassword", "-email", "root@school.edu", "-role", "janitor"})
		assert.EqualError(t, err, `unknown role "janitor"`)
	})
}
