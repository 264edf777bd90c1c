package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/attendance/internal/app/controllers"
	appMigrations "github.com/yigit/attendance/internal/app/migrations"
	appRepos "github.com/yigit/attendance/internal/app/repositories"
	appRoutes "github.com/yigit/attendance/internal/app/routes"
	appServices "github.com/yigit/attendance/internal/app/services"
	"github.com/yigit/attendance/internal/config"
	"github.com/yigit/attendance/internal/db"
	appMiddleware "github.com/yigit/attendance/internal/middleware"
	pkgAuth "github.com/yigit/attendance/internal/pkg/auth"
	"github.com/yigit/attendance/internal/pkg/filestorage"
	"github.com/yigit/attendance/internal/pkg/helpers"
	"github.com/yigit/attendance/internal/pkg/logger"
	"github.com/yigit/attendance/internal/pkg/metrics"
	"github.com/yigit/attendance/internal/pkg/qrtoken"
	"github.com/yigit/attendance/internal/pkg/ratelimit"
	"github.com/yigit/attendance/internal/seed"
)

// DefaultConfigPath is used when ATTENDANCE_CONFIG is not set
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	TokenService   *qrtoken.Service
	FileStorage    filestorage.Storage
	Metrics        *metrics.Registry
	Redis          *goredis.Client // nil when redis is disabled
	RedeemLimiter  *ratelimit.Limiter
	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger
}

// ConfigPath resolves the config file location.
func ConfigPath() string {
	if p := os.Getenv("ATTENDANCE_CONFIG"); p != "" {
		return p
	}
	return filepath.FromSlash(DefaultConfigPath)
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies pending migrations and seeds the first admin.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	pool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	if err := RunMigrations(ctx, cfg, pool, lgr); err != nil {
		pool.Close()
		return nil, err
	}

	repos := appRepos.NewRepositories(pool)
	if err := seed.CreateDefaultAdmin(ctx, repos.Users, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to seed default admin, proceeding anyway...")
	}

	return pool, nil
}

// RunMigrations applies every pending file in the configured migrations directory.
func RunMigrations(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) error {
	dir := cfg.Database.MigrationsDir
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		lgr.Error().Str("path", dir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", dir, err)
	}

	applied, err := appMigrations.NewMigrator(pool, lgr).MigrateFromDirectory(ctx, dir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations up to date.")
	return nil
}

// BuildDependencies initializes repositories, services and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(pool)

	var err error
	deps.FileStorage, err = newFileStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.TokenService, err = qrtoken.NewService(qrtoken.Config{
		Secret:           cfg.Attendance.TokenSecret,
		MaxAge:           cfg.AttendanceTokenMaxAge(),
		RotationInterval: cfg.AttendanceRotationInterval(),
		Issuer:           cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qr token service: %w", err)
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewRegistry()
	}

	if cfg.Redis.Enabled {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		deps.Redis = client
		deps.RedeemLimiter = ratelimit.NewLimiter(
			ratelimit.NewRedisStore(client),
			"redeem",
			cfg.RateLimit.RedeemPerMinute,
			cfg.RateLimit.RedeemPer10Sec,
		)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redeem rate limiting enabled")
	}

	r := deps.Repos
	authService := appServices.NewAuthService(r.Users, r.Students, r.Teachers, r.Subjects, r.Batches, r.Tokens, deps.JWTService, logger.Component("auth"))
	userService := appServices.NewUserService(r.Users, r.Students, r.Teachers, r.Subjects, r.Batches, r.Tokens, logger.Component("users"))
	catalogueService := appServices.NewCatalogueService(r.Batches, r.Subjects, r.Teachers, logger.Component("catalogue"))
	sessionService := appServices.NewSessionService(deps.TokenService, r.Sessions, r.Teachers, r.Subjects, r.Students, r.Attendance, r.Audit, deps.Metrics, logger.Component("sessions"))
	attendanceService := appServices.NewAttendanceService(deps.TokenService, r.Sessions, r.Students, r.Teachers, r.Attendance, r.Audit, deps.Metrics, logger.Component("attendance"))
	timetableService := appServices.NewTimetableService(r.Timetable, r.Subjects, r.Teachers, r.Students, logger.Component("timetable"))
	syllabusService := appServices.NewSyllabusService(r.Syllabi, r.Subjects, r.Teachers, r.Students, deps.FileStorage, logger.Component("syllabi"))
	reportService := appServices.NewReportService(r.Users, r.Students, r.Teachers, r.Sessions, r.Attendance, r.Audit, logger.Component("reports")).
		WithLocation(cfg.DatabaseLocation())

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(authService, userService, lgr),
		Users:      appControllers.NewUserController(userService, lgr),
		Catalogue:  appControllers.NewCatalogueController(catalogueService),
		Sessions:   appControllers.NewSessionController(sessionService, attendanceService),
		Attendance: appControllers.NewAttendanceController(attendanceService, reportService),
		Timetable:  appControllers.NewTimetableController(timetableService),
		Syllabi:    appControllers.NewSyllabusController(syllabusService),
		Reports:    appControllers.NewReportController(reportService),
	}

	return deps, nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (filestorage.Storage, error) {
	if cfg.Storage.Driver == "s3" {
		s3 := cfg.Storage.S3
		return filestorage.NewS3Storage(ctx, filestorage.S3Config{
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
			PublicURL: s3.PublicURL,
		})
	}

	publicURL := strings.TrimRight(cfg.Server.PublicURL, "/")
	if publicURL == "" {
		publicURL = "http://localhost:" + cfg.Server.Port
	}
	return filestorage.NewLocalStorage(cfg.Server.StoragePath, publicURL+"/uploads")
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		lgr.Warn().Err(err).Msg("Custom validators not registered")
	}

	router := gin.New()
	router.Use(appMiddleware.Recovery(lgr), appMiddleware.RequestLogger(lgr))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, appMiddleware.RateLimit(deps.RedeemLimiter, lgr))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
