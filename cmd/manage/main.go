// Command manage runs administrative tasks against the database:
//
//	manage migrate [-status]
//	manage createsuperuser -username admin -email admin@example.com [-password ...]
//	manage clearsessions
//
// Settings come from CONFIG_FILE and the environment, as for the API server.
// The password falls back to SUPERUSER_PASSWORD when the flag is empty.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	authrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile"
	profilerepo "github.com/ovaphlow/pitchfork/service-library-go/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-library-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		fs := flag.NewFlagSet("migrate", flag.ExitOnError)
		status := fs.Bool("status", false, "print migration status instead of applying")
		_ = fs.Parse(args)
		if *status {
			err = migrations.Status(ctx, sqlDB)
		} else {
			err = migrations.Up(ctx, sqlDB)
		}
	case "createsuperuser":
		err = createSuperuser(ctx, sqlDB, args, sugar)
	case "clearsessions":
		var n int64
		n, err = authrepo.NewRefreshRepo(database.Wrap(sqlDB)).DeleteExpired(ctx, time.Now())
		if err == nil {
			sugar.Infow("expired refresh sessions removed", "count", n)
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		sugar.Fatalf("%s: %v", cmd, err)
	}
}

func createSuperuser(ctx context.Context, sqlDB *sql.DB, args []string, sugar *zap.SugaredLogger) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (default $SUPERUSER_PASSWORD)")
	_ = fs.Parse(args)
	if *password == "" {
		*password = os.Getenv("SUPERUSER_PASSWORD")
	}

	db := database.Wrap(sqlDB)
	users := user.NewUserService(userrepo.NewUserRepo(db), nil, nil, sugar)
	users.OnCreate(profile.NewService(profilerepo.NewProfileRepo(db)).OnUserCreated)

	u, err := users.CreateSuperuser(ctx, user.NewUser{Username: *username, Email: *email, Password: *password})
	if err != nil {
		if verr, ok := common.AsValidation(err); ok {
			return fmt.Errorf("invalid input: %s", verr.Error())
		}
		return err
	}
	sugar.Infow("superuser created", "id", u.ID, "username", u.Username)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: manage <migrate [-status] | createsuperuser -username U -email E [-password P] | clearsessions>")
}
