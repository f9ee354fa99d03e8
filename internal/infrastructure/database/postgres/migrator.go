package postgres

import (
	"database/sql"
	"embed"
	stderrors "errors"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/turtacn/pubconcept/internal/config"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// sqlOpen is a variable to allow mocking in tests.
var sqlOpen = sql.Open

// OpenMigrationDB opens a database/sql handle over lib/pq for golang-migrate.
func OpenMigrationDB(cfg config.DatabaseConfig, log logging.Logger) (*sql.DB, error) {
	db, err := sqlOpen("postgres", buildConnString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database connection")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed")
	}
	log.Debug("Opened migration connection", logging.String("database", cfg.DBName))
	return db, nil
}

// newMigrate builds a migrator over db. An empty migrationPath uses the
// migrations compiled into the binary; otherwise it is a directory path.
func newMigrate(db *sql.DB, migrationPath string) (*migrate.Migrate, error) {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	if migrationPath != "" {
		m, err := migrate.NewWithDatabaseInstance("file://"+migrationPath, "postgres", driver)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
		}
		return m, nil
	}
	src, err := embeddedSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

func embeddedSource() (source.Driver, error) {
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to load embedded migrations")
	}
	return src, nil
}

// RunMigrations applies every pending migration. No pending migrations is
// not an error. The migrator shares db, and closing db releases it.
func RunMigrations(db *sql.DB, migrationPath string, log logging.Logger) error {
	m, err := newMigrate(db, migrationPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations").
			WithDetail("current version " + strconv.FormatUint(uint64(version), 10))
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		log.Warn("Failed to get migration version", logging.Err(err))
	}
	log.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// MigrationStatus reports the applied version and dirty flag. A database with
// no migrations applied reports version 0.
func MigrationStatus(db *sql.DB, migrationPath string) (uint, bool, error) {
	m, err := newMigrate(db, migrationPath)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

//Personal.AI order the ending
