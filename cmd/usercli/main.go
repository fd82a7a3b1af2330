// Command usercli provisions accounts that cannot sign up themselves
// (OFFICE, SECURITY, ADMIN) and runs a few operator chores.
//
//	usercli create -username desk1 -password ... -role OFFICE
//	usercli check -username desk1 -password ...
//	usercli list -role ADMIN
//	usercli reindex
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/config"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/database"
	"github.com/campuslf/lostfound-api/internal/pkg/password"
)

// Users is the part of the user repository the CLI needs
type Users interface {
	Create(ctx context.Context, u *user.User) error
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	List(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, error)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "create", "check", "list":
		db, dbErr := database.NewPostgres(cfg.DatabaseURL)
		if dbErr != nil {
			fmt.Fprintf(os.Stderr, "connect to database: %v\n", dbErr)
			os.Exit(1)
		}
		defer database.ClosePostgres(db)
		err = run(ctx, user.NewRepository(db), os.Args[1], os.Args[2:], os.Stdout)
	case "reindex":
		rdb, rErr := database.NewRedis(cfg.RedisURL)
		if rErr != nil {
			fmt.Fprintf(os.Stderr, "connect to redis: %v\n", rErr)
			os.Exit(1)
		}
		defer database.CloseRedis(rdb)
		err = rdb.Publish(ctx, item.ResyncChannel, time.Now().UTC().Format(time.RFC3339)).Err()
		if err == nil {
			fmt.Println("resync requested")
		}
	default:
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: usercli <create|check|list|reindex> [flags]")
}

func run(ctx context.Context, users Users, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "create":
		return createUser(ctx, users, args, out)
	case "check":
		return checkLogin(ctx, users, args, out)
	case "list":
		return listUsers(ctx, users, args, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func createUser(ctx context.Context, users Users, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "login name")
	pass := fs.String("password", "", "initial password, at least 8 characters")
	role := fs.String("role", string(user.RoleOffice), "one of LOSER FINDER OFFICE SECURITY ADMIN COURIER")
	nickname := fs.String("nickname", "", "display name, defaults to username")
	affiliation := fs.String("affiliation", string(user.AffiliationStaff), "STUDENT, STAFF or EXTERNAL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name := strings.ToLower(strings.TrimSpace(*username))
	if name == "" {
		return errors.New("-username is required")
	}
	if err := password.Check(*pass); err != nil {
		return fmt.Errorf("-password: %w", err)
	}
	r := user.Role(strings.ToUpper(*role))
	if !validRole(r) {
		return fmt.Errorf("unknown role %q", *role)
	}
	aff := user.Affiliation(strings.ToUpper(*affiliation))
	if aff != user.AffiliationStudent && aff != user.AffiliationStaff && aff != user.AffiliationExternal {
		return fmt.Errorf("unknown affiliation %q", *affiliation)
	}

	hash, err := password.Hash(*pass)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Username:     name,
		PasswordHash: hash,
		Nickname:     *nickname,
		Role:         r,
		Status:       user.StatusActive,
		Affiliation:  aff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Nickname == "" {
		u.Nickname = name
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}

	fmt.Fprintf(out, "created %s %s (%s)\n", u.Role, u.Username, u.ID)
	return nil
}

func checkLogin(ctx context.Context, users Users, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "login name")
	pass := fs.String("password", "", "password to verify")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(*username)))
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %q not found", *username)
	}

	fmt.Fprintf(out, "user %s role=%s status=%s\n", u.ID, u.Role, u.Status)
	if !password.Verify(*pass, u.PasswordHash) {
		return errors.New("password does not match")
	}
	if !u.IsActive() {
		return errors.New("user is blocked")
	}
	fmt.Fprintln(out, "login ok")
	return nil
}

func listUsers(ctx context.Context, users Users, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	role := fs.String("role", "", "filter by role")
	limit := fs.Int("limit", 50, "max rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := user.Role(strings.ToUpper(*role))
	if r != "" && !validRole(r) {
		return fmt.Errorf("unknown role %q", *role)
	}

	list, err := users.List(ctx, r, *limit, 0)
	if err != nil {
		return err
	}
	for _, u := range list {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.Status)
	}
	fmt.Fprintf(out, "total: %d\n", len(list))
	return nil
}

func validRole(r user.Role) bool {
	for _, known := range user.AllRoles {
		if known == r {
			return true
		}
	}
	return false
}
