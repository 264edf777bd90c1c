// Package cli implements attendctl, the operator tool for migrations, user
// bootstrap and QR token debugging.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/bootstrap"
	"github.com/yigit/attendance/internal/config"
	"github.com/yigit/attendance/internal/db"
	"github.com/yigit/attendance/internal/pkg/auth"
	"github.com/yigit/attendance/internal/pkg/logger"
	"github.com/yigit/attendance/internal/pkg/qrtoken"
)

// Version is set via ldflags.
var Version = "dev"

// App creates the attendctl application.
func App() *cli.App {
	return &cli.App{
		Name:    "attendctl",
		Usage:   "Attendance service management tool",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.yaml",
				EnvVars: []string{"ATTENDANCE_CONFIG"},
				Value:   bootstrap.DefaultConfigPath,
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			createUserCommand(),
			hashPasswordCommand(),
			tokenCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: true,
		Output: c.App.ErrWriter,
	})
	return cfg, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.NewPostgresDB(c.Context, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return bootstrap.RunMigrations(c.Context, cfg, database.Pool, logger.Component("migrate"))
		},
	}
}

func createUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create an admin or teacher account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name"},
			&cli.StringFlag{Name: "role", Value: string(models.RoleTeacher), Usage: "ADMIN or TEACHER"},
		},
		Action: func(c *cli.Context) error {
			user, err := userFromFlags(c)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			database, err := db.NewPostgresDB(c.Context, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			users := repositories.NewUserRepository(database.Pool)
			if err := createUser(c.Context, users, user); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "created %s %s (id %d)\n", user.RoleType, user.Email, user.ID)
			return nil
		},
	}
}

// userFromFlags validates the create-user flags and hashes the password.
func userFromFlags(c *cli.Context) (*models.User, error) {
	role := models.RoleType(strings.ToUpper(c.String("role")))
	if role != models.RoleAdmin && role != models.RoleTeacher {
		return nil, fmt.Errorf("role must be ADMIN or TEACHER, got %q", c.String("role"))
	}
	if len(c.String("password")) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hashed, err := auth.HashPassword(c.String("password"))
	if err != nil {
		return nil, err
	}

	return &models.User{
		Email:     strings.ToLower(strings.TrimSpace(c.String("email"))),
		Password:  hashed,
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
		RoleType:  role,
		IsActive:  true,
	}, nil
}

// userCreator is the part of the user repository create-user needs
type userCreator interface {
	CreateAdmin(ctx context.Context, user *models.User) error
	CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error
}

func createUser(ctx context.Context, users userCreator, user *models.User) error {
	if user.RoleType == models.RoleAdmin {
		return users.CreateAdmin(ctx, user)
	}
	return users.CreateTeacher(ctx, user, &models.Teacher{})
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print the bcrypt hash of a password read from the argument or stdin",
		ArgsUsage: "[password]",
		Action: func(c *cli.Context) error {
			password := c.Args().First()
			if password == "" {
				line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password is required")
			}

			hashed, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hashed)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue or inspect QR tokens with the configured secret",
		Subcommands: []*cli.Command{
			{
				Name:      "issue",
				Usage:     "Mint a token for a session",
				ArgsUsage: "<session-uuid>",
				Action: func(c *cli.Context) error {
					sessionID, err := uuid.Parse(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid session id: %w", err)
					}
					tokens, err := tokenService(c)
					if err != nil {
						return err
					}
					token, _, err := tokens.Issue(sessionID)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
			{
				Name:      "verify",
				Usage:     "Check a scanned token and print what redemption would see",
				ArgsUsage: "<token>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("exactly one token is required")
					}
					tokens, err := tokenService(c)
					if err != nil {
						return err
					}

					sessionID, issuedAt, err := tokens.Verify(c.Args().First())
					fmt.Fprintf(c.App.Writer, "outcome: %s\n", verifyOutcome(err))
					if sessionID != uuid.Nil {
						fmt.Fprintf(c.App.Writer, "session: %s\n", sessionID)
						fmt.Fprintf(c.App.Writer, "issued:  %s (%s ago)\n", issuedAt.Format(time.RFC3339), time.Since(issuedAt).Round(time.Second))
					}
					return nil
				},
			},
		},
	}
}

func tokenService(c *cli.Context) (*qrtoken.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return qrtoken.NewService(qrtoken.Config{
		Secret:           cfg.Attendance.TokenSecret,
		MaxAge:           cfg.AttendanceTokenMaxAge(),
		RotationInterval: cfg.AttendanceRotationInterval(),
		Issuer:           cfg.JWT.Issuer,
	})
}

func verifyOutcome(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeSuccess
	case errors.Is(err, qrtoken.ErrExpired):
		return models.OutcomeExpired
	case errors.Is(err, qrtoken.ErrInvalidPayload):
		return models.OutcomeInvalidPayload
	default:
		return models.OutcomeInvalidSignature
	}
}
