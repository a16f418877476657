package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/auth"
	authRedis "github.com/frahmantamala/user-rbac/internal/auth/redis"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/permission"
	permissionPostgres "github.com/frahmantamala/user-rbac/internal/permission/postgres"
	"github.com/frahmantamala/user-rbac/internal/role"
	rolePostgres "github.com/frahmantamala/user-rbac/internal/role/postgres"
	"github.com/frahmantamala/user-rbac/internal/transport"
	"github.com/frahmantamala/user-rbac/internal/transport/rest"
	"github.com/frahmantamala/user-rbac/internal/user"
	userPostgres "github.com/frahmantamala/user-rbac/internal/user/postgres"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	userrolePostgres "github.com/frahmantamala/user-rbac/internal/userrole/postgres"
	"github.com/frahmantamala/user-rbac/pkg/database"
	"github.com/frahmantamala/user-rbac/pkg/logger"
	redisClient "github.com/frahmantamala/user-rbac/pkg/redis"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// application holds the wired services shared by the server and the
// maintenance commands.
type application struct {
	Config *internal.Config
	Logger *slog.Logger
	SQLX   *sqlx.DB
	Gorm   *gorm.DB
	Redis  *goredis.Client
	Bus    *events.EventBus

	Users       *user.Service
	Permissions *permission.Service
	Roles       *role.Service
	UserRoles   *userrole.Service
	Auth        *auth.Service
}

func newApplication(ctx context.Context, cfg *internal.Config) (*application, error) {
	lg := logger.LoggerWrapper()

	sqlxDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(sqlxDB)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	app := &application{
		Config: cfg,
		Logger: lg,
		SQLX:   sqlxDB,
		Gorm:   gormDB,
		Bus:    events.NewEventBus(lg),
	}

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if cfg.Redis.Enabled() {
		client, err := redisClient.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = client
		revocations = authRedis.NewRevocationStore(client)
	} else {
		lg.Warn("redis not configured, token revocations are kept in memory")
	}

	events.NewAuditLogger(lg).Register(app.Bus)

	app.Permissions = permission.NewService(permissionPostgres.NewPermissionRepository(gormDB), lg)
	app.Roles = role.NewService(rolePostgres.NewRoleRepository(gormDB), app.Bus, lg)
	app.UserRoles = userrole.NewService(
		userrolePostgres.NewUserRoleRepository(gormDB),
		userrolePostgres.NewPermissionQuery(sqlxDB),
		app.Bus,
		lg,
	)
	app.Users = user.NewService(
		userPostgres.NewUserRepository(gormDB),
		user.NewPasswordHasher(cfg.Security.BCryptCost),
		app.UserRoles,
		database.NewTransactor(gormDB),
		app.Bus,
		lg,
	)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	app.Auth = auth.NewService(app.Users, tokens, revocations, lg)

	return app, nil
}

func (a *application) Handlers() rest.Handlers {
	base := transport.NewBaseHandler(a.Logger)
	return rest.Handlers{
		Auth:       auth.NewHandler(base, a.Auth),
		User:       user.NewHandler(base, a.Users),
		Role:       role.NewHandler(base, a.Roles),
		Permission: permission.NewHandler(base, a.Permissions),
		UserRole:   userrole.NewHandler(base, a.UserRoles),
	}
}

// Close drains pending events and releases connections.
func (a *application) Close() {
	if a.Bus != nil {
		a.Bus.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if err := a.SQLX.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// initDB opens the shared pgx pool that sqlx and gorm both use.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
