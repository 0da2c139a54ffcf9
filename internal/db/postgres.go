package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/types"
	"github.com/strivefit/strivefit-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to Postgres by default; DB_DRIVER=sqlite opens a local file
// database instead so the engine runs without a Postgres instance.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "strivefit.db", log)
		log.Info("Connecting to SQLite...", "path", path)
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			log.Error("Failed to open SQLite", "error", err)
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil

	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "strivefit", log)

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

		log.Info("Connecting to Postgres...")
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			log.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %q", driver)
	}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Goal{},
		&types.ProgressMeasurement{},
		&types.Milestone{},
		&types.TrainingPlan{},
		&types.WorkoutSession{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("automigrate: %w", err)
	}
	s.log.Info("Auto migration complete")
	return nil
}
