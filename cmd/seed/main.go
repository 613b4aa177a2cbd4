package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/taskflow-service/internal/config"
	"github.com/spec-kit/taskflow-service/internal/domain"
	"github.com/spec-kit/taskflow-service/internal/observability"
	"github.com/spec-kit/taskflow-service/internal/persistence"
	"github.com/spec-kit/taskflow-service/internal/repository"
	"github.com/spec-kit/taskflow-service/internal/service"
)

func main() {
	var (
		name         string
		email        string
		role         string
		passwordFile string
		migrate      bool
	)
	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	fs.StringVar(&name, "name", "Administrator", "display name")
	fs.StringVar(&email, "email", "", "account email (required)")
	fs.StringVar(&role, "role", string(domain.RoleAdmin), "ADMIN, MANAGER or STAFF")
	fs.StringVar(&passwordFile, "password-file", "", "file holding the password (default: prompt)")
	fs.BoolVar(&migrate, "migrate", false, "apply pending migrations first")
	_ = fs.Parse(os.Args[1:])

	if email == "" {
		fs.Usage()
		os.Exit(2)
	}

	logger, err := observability.NewLogger(config.LoggerConfig{Level: "warn"})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	password, err := readPassword(passwordFile)
	if err != nil {
		log.Fatalf("password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pgCfg := config.LoadPostgres()
	if pgCfg.DSN == "" {
		log.Fatal("POSTGRES_DSN is not set")
	}
	pg, err := persistence.NewPostgres(ctx, pgCfg, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if migrate {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), pgCfg.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	accounts := service.NewAuthService(config.AuthConfig{BcryptCost: 10}, service.AuthDependencies{
		UserRepo: repository.NewUserRepository(pg.PoolHandle()),
		Logger:   logger,
	})
	user, err := accounts.Provision(ctx, name, email, password, domain.Role(role))
	if err != nil {
		log.Fatalf("create account: %v", err)
	}
	fmt.Printf("created %s %s (%s)\n", user.Role, user.Email, user.ID)
}

// readPassword reads from a file or prompts twice on the terminal.
func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for password prompt (use --password-file)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
