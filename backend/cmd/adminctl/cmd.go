package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store *store.Store
	cost  int
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createadmin -email EMAIL -name NAME              - create an administrator account")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL [-role ROLE]          - reset a password (role: admin, staff, student)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminEmail := createAdminCmd.String("email", "", "The administrator's email. The password will be prompted next.")
	createAdminName := createAdminCmd.String("name", "", "The administrator's display name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account email. The password will be prompted next.")
	resetPasswordRole := resetPasswordCmd.String("role", shared.RoleAdmin, "One of admin, staff, student.")

	switch args[1] {
	case "createadmin":
		createAdminCmd.SetOutput(cli.out)
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminEmail == "" || *createAdminName == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.createAdmin(*createAdminName, *createAdminEmail, pwd)

	case "resetpassword":
		resetPasswordCmd.SetOutput(cli.out)
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordRole, *resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) < shared.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", shared.MinPasswordLength)
	}
	return string(pwd), nil
}

func (cli *commandLine) hash(pwd string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pwd), cli.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hash, err := cli.hash(pwd)
	if err != nil {
		return err
	}
	now := time.Now()
	admin := &shared.Admin{
		Name:         strings.TrimSpace(name),
		Email:        shared.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := cli.store.Admins.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("an administrator with email %s already exists", admin.Email)
		}
		return err
	}
	fmt.Fprintf(cli.out, "created administrator %s (%s)\n", admin.Email, admin.ID.Hex())
	return nil
}

func (cli *commandLine) resetPassword(role, email, pwd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	email = shared.NormalizeEmail(email)
	hash, err := cli.hash(pwd)
	if err != nil {
		return err
	}

	switch role {
	case shared.RoleAdmin:
		admin, err := cli.store.Admins.GetByEmail(ctx, email)
		if err != nil {
			return notFound(err, role, email)
		}
		err = cli.store.Admins.SetPassword(ctx, admin.ID, hash)
		if err != nil {
			return err
		}
	case shared.RoleStaff:
		staff, err := cli.store.Staff.GetByEmail(ctx, email)
		if err != nil {
			return notFound(err, role, email)
		}
		// the staff member chooses a new one at next login
		if err := cli.store.Staff.SetPassword(ctx, staff.ID, hash, true); err != nil {
			return err
		}
	case shared.RoleStudent:
		student, err := cli.store.Students.GetByEmail(ctx, email)
		if err != nil {
			return notFound(err, role, email)
		}
		if err := cli.store.Students.SetPassword(ctx, student.ID, hash); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	fmt.Fprintf(cli.out, "password reset for %s %s\n", role, email)
	return nil
}

func notFound(err error, role, email string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no %s with email %s", role, email)
	}
	return err
}
