package database

import (
	"context"
	"fmt"
	stdlog "log"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/config"
	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// Database exposes the post store and the state of its lazy connection.
type Database struct {
	posts   PostStore
	dbType  string
	ready   func() bool
	connect func(ctx context.Context) error
}

// New picks the store from DB_TYPE. Nothing is opened until the first request or Connect.
func New(c map[string]string) (Database, error) {
	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "postgres"))
	connectTimeout := config.GetSeconds(c, "DB_CONNECT_TIMEOUT_SECONDS", 5*time.Second)
	listTimeout := config.GetSeconds(c, "LIST_TIMEOUT_SECONDS", DefaultListTimeout)

	switch dbType {
	case "mongo":
		handle := NewHandle(OpenMongoCollection(
			config.GetString(c, "MONGO_URI", ""),
			config.GetString(c, "MONGO_DB_NAME", "portfolio"),
		), connectTimeout)
		db := NewMongo(handle, listTimeout)
		db.dbType = dbType
		return db, nil
	case "postgres", "supa", "sqlite":
		handle := NewHandle(OpenGorm(c), connectTimeout)
		db := NewGorm(handle, listTimeout)
		db.dbType = dbType
		return db, nil
	default:
		return Database{}, errs.NewConfigError("DB_TYPE", fmt.Errorf("unsupported database type %q", dbType))
	}
}

func NewGorm(handle *Handle[*gorm.DB], listTimeout time.Duration) Database {
	return Database{
		posts:  NewBlogPostRepo(handle, listTimeout),
		dbType: "sqlite",
		ready:  handle.Ready,
		connect: func(ctx context.Context) error {
			_, err := handle.Get(ctx)
			return err
		},
	}
}

func NewMongo(handle *Handle[*mongo.Collection], listTimeout time.Duration) Database {
	return Database{
		posts:  NewMongoBlogPostRepo(handle, listTimeout),
		dbType: "mongo",
		ready:  handle.Ready,
		connect: func(ctx context.Context) error {
			_, err := handle.Get(ctx)
			return err
		},
	}
}

func (d Database) Posts() PostStore {
	return d.posts
}

// Ready reports whether the lazy connection has been established.
func (d Database) Ready() bool {
	return d.ready != nil && d.ready()
}

// Connect forces the lazy connection open.
func (d Database) Connect(ctx context.Context) error {
	if d.connect == nil {
		return errs.NewConnectionError(fmt.Errorf("database not configured"))
	}
	return d.connect(ctx)
}

// Type is the DB_TYPE the store was built for.
func (d Database) Type() string {
	return d.dbType
}

// OpenGorm builds the opener for the SQL stores. The DSN is resolved per DB_TYPE:
// postgres uses DATABASE_URL, supa builds one from SUPABASE_DB_*, sqlite uses DATABASE_PATH.
func OpenGorm(c map[string]string) OpenFunc[*gorm.DB] {
	return func(ctx context.Context) (*gorm.DB, error) {
		dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "postgres"))

		dialector, err := dialectorFor(dbType, c)
		if err != nil {
			return nil, err
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			PrepareStmt: false,
			Logger:      newGormLogger(c),
		})
		if err != nil {
			return nil, errs.NewConnectionError(err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, errs.NewConnectionError(err)
		}
		if dbType == "sqlite" {
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(config.GetInt(c, "DB_MAX_OPEN_CONNS", 10))
			sqlDB.SetMaxIdleConns(config.GetInt(c, "DB_MAX_IDLE_CONNS", 5))
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, errs.NewConnectionError(err)
		}

		if err := db.WithContext(ctx).AutoMigrate(&models.Post{}); err != nil {
			_ = sqlDB.Close()
			return nil, errs.NewConnectionError(fmt.Errorf("migrate blogs: %w", err))
		}

		if replicas := config.GetStrings(c, "DATABASE_REPLICA_URLS"); len(replicas) > 0 && dbType != "sqlite" {
			if err := useReplicas(db, replicas); err != nil {
				_ = sqlDB.Close()
				return nil, errs.NewConnectionError(err)
			}
		}
		return db, nil
	}
}

func dialectorFor(dbType string, c map[string]string) (gorm.Dialector, error) {
	switch dbType {
	case "supa":
		host := config.GetString(c, "SUPABASE_DB_HOST", "")
		if host == "" {
			return nil, errs.NewConnectionError(errs.NewEnvironmentVariableError("SUPABASE_DB_HOST"))
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			host,
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", "postgres"),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		)
		return postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), nil
	case "sqlite":
		return sqlite.Open(config.GetString(c, "DATABASE_PATH", "portfolio.db")), nil
	default:
		dsn := config.GetString(c, "DATABASE_URL", "")
		if dsn == "" {
			return nil, errs.NewConnectionError(errs.NewEnvironmentVariableError("DATABASE_URL"))
		}
		return postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), nil
	}
}

// useReplicas sends reads to the replicas and keeps writes on the primary.
func useReplicas(db *gorm.DB, replicaDSNs []string) error {
	replicas := make([]gorm.Dialector, 0, len(replicaDSNs))
	for _, dsn := range replicaDSNs {
		replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
	}
	return db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}))
}

func newGormLogger(c map[string]string) logger.Interface {
	return logger.New(
		stdlog.New(log.With().Str("component", "gorm").Logger(), "", 0),
		logger.Config{
			SlowThreshold:             config.GetSeconds(c, "DB_SLOW_QUERY_SECONDS", time.Second),
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
