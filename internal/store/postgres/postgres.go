// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateObjectType(ctx context.Context, ot *model.ObjectType) error {
	return queryCreateObjectType(ctx, s.db, ot)
}

func (s *PostgresStore) GetObjectType(ctx context.Context, id string) (*model.ObjectType, error) {
	return queryGetObjectType(ctx, s.db, id)
}

func (s *PostgresStore) GetObjectTypeByAPIName(ctx context.Context, apiName string) (*model.ObjectType, error) {
	return queryGetObjectTypeByAPIName(ctx, s.db, apiName)
}

func (s *PostgresStore) ListObjectTypes(ctx context.Context, includeArchived bool) ([]*model.ObjectType, error) {
	return queryListObjectTypes(ctx, s.db, includeArchived)
}

func (s *PostgresStore) UpdateObjectType(ctx context.Context, ot *model.ObjectType) error {
	return queryUpdateObjectType(ctx, s.db, ot)
}

func (s *PostgresStore) ArchiveObjectType(ctx context.Context, id string) error {
	return queryArchiveObjectType(ctx, s.db, id)
}

func (s *PostgresStore) CreateField(ctx context.Context, f *model.FieldDefinition) error {
	return queryCreateField(ctx, s.db, f)
}

func (s *PostgresStore) GetField(ctx context.Context, id string) (*model.FieldDefinition, error) {
	return queryGetField(ctx, s.db, id)
}

func (s *PostgresStore) ListFields(ctx context.Context, objectTypeID string) ([]*model.FieldDefinition, error) {
	return queryListFields(ctx, s.db, objectTypeID)
}

func (s *PostgresStore) UpdateField(ctx context.Context, f *model.FieldDefinition) error {
	return queryUpdateField(ctx, s.db, f)
}

func (s *PostgresStore) DeleteField(ctx context.Context, id string) error {
	return queryDeleteField(ctx, s.db, id)
}

func (s *PostgresStore) CreateRecord(ctx context.Context, r *model.Record) error {
	return queryCreateRecord(ctx, s.db, r)
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return queryGetRecord(ctx, s.db, id)
}

func (s *PostgresStore) GetRecordsByIDs(ctx context.Context, ids []string) ([]*model.Record, error) {
	return queryGetRecordsByIDs(ctx, s.db, ids)
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter model.RecordFilter) ([]*model.Record, int, error) {
	return queryListRecords(ctx, s.db, filter)
}

func (s *PostgresStore) TouchRecord(ctx context.Context, id string) error {
	return queryTouchRecord(ctx, s.db, id)
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	return queryDeleteRecord(ctx, s.db, id)
}

func (s *PostgresStore) UpsertAttribute(ctx context.Context, recordID, fieldAPIName, value string) error {
	return queryUpsertAttribute(ctx, s.db, recordID, fieldAPIName, value)
}

func (s *PostgresStore) DeleteAttribute(ctx context.Context, recordID, fieldAPIName string) error {
	return queryDeleteAttribute(ctx, s.db, recordID, fieldAPIName)
}

func (s *PostgresStore) GetAttributes(ctx context.Context, recordID string) (model.AttributeMap, error) {
	return queryGetAttributes(ctx, s.db, recordID)
}

func (s *PostgresStore) GetAttributesForMany(ctx context.Context, recordIDs []string) (map[string]model.AttributeMap, error) {
	return queryGetAttributesForMany(ctx, s.db, recordIDs)
}

func (s *PostgresStore) ListRecordIDsByAttribute(ctx context.Context, fieldAPINames []string, value string) ([]string, error) {
	return queryListRecordIDsByAttribute(ctx, s.db, fieldAPINames, value)
}

func (s *PostgresStore) CreateRelationship(ctx context.Context, rel *model.Relationship) error {
	return queryCreateRelationship(ctx, s.db, rel)
}

func (s *PostgresStore) ListRelationshipsForObjectType(ctx context.Context, objectTypeID string) ([]*model.Relationship, error) {
	return queryListRelationshipsForObjectType(ctx, s.db, objectTypeID)
}

func (s *PostgresStore) DeleteRelationship(ctx context.Context, id string) error {
	return queryDeleteRelationship(ctx, s.db, id)
}

func (s *PostgresStore) SetVisibleFields(ctx context.Context, userID, objectTypeID string, fields []string) error {
	return querySetVisibleFields(ctx, s.db, userID, objectTypeID, fields)
}

func (s *PostgresStore) GetVisibleFields(ctx context.Context, userID, objectTypeID string) ([]string, error) {
	return queryGetVisibleFields(ctx, s.db, userID, objectTypeID)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateObjectType(ctx context.Context, ot *model.ObjectType) error {
	return queryCreateObjectType(ctx, s.tx, ot)
}

func (s *txStore) GetObjectType(ctx context.Context, id string) (*model.ObjectType, error) {
	return queryGetObjectType(ctx, s.tx, id)
}

func (s *txStore) GetObjectTypeByAPIName(ctx context.Context, apiName string) (*model.ObjectType, error) {
	return queryGetObjectTypeByAPIName(ctx, s.tx, apiName)
}

func (s *txStore) ListObjectTypes(ctx context.Context, includeArchived bool) ([]*model.ObjectType, error) {
	return queryListObjectTypes(ctx, s.tx, includeArchived)
}

func (s *txStore) UpdateObjectType(ctx context.Context, ot *model.ObjectType) error {
	return queryUpdateObjectType(ctx, s.tx, ot)
}

func (s *txStore) ArchiveObjectType(ctx context.Context, id string) error {
	return queryArchiveObjectType(ctx, s.tx, id)
}

func (s *txStore) CreateField(ctx context.Context, f *model.FieldDefinition) error {
	return queryCreateField(ctx, s.tx, f)
}

func (s *txStore) GetField(ctx context.Context, id string) (*model.FieldDefinition, error) {
	return queryGetField(ctx, s.tx, id)
}

func (s *txStore) ListFields(ctx context.Context, objectTypeID string) ([]*model.FieldDefinition, error) {
	return queryListFields(ctx, s.tx, objectTypeID)
}

func (s *txStore) UpdateField(ctx context.Context, f *model.FieldDefinition) error {
	return queryUpdateField(ctx, s.tx, f)
}

func (s *txStore) DeleteField(ctx context.Context, id string) error {
	return queryDeleteField(ctx, s.tx, id)
}

func (s *txStore) CreateRecord(ctx context.Context, r *model.Record) error {
	return queryCreateRecord(ctx, s.tx, r)
}

func (s *txStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return queryGetRecord(ctx, s.tx, id)
}

func (s *txStore) GetRecordsByIDs(ctx context.Context, ids []string) ([]*model.Record, error) {
	return queryGetRecordsByIDs(ctx, s.tx, ids)
}

func (s *txStore) ListRecords(ctx context.Context, filter model.RecordFilter) ([]*model.Record, int, error) {
	return queryListRecords(ctx, s.tx, filter)
}

func (s *txStore) TouchRecord(ctx context.Context, id string) error {
	return queryTouchRecord(ctx, s.tx, id)
}

func (s *txStore) DeleteRecord(ctx context.Context, id string) error {
	return queryDeleteRecord(ctx, s.tx, id)
}

func (s *txStore) UpsertAttribute(ctx context.Context, recordID, fieldAPIName, value string) error {
	return queryUpsertAttribute(ctx, s.tx, recordID, fieldAPIName, value)
}

func (s *txStore) DeleteAttribute(ctx context.Context, recordID, fieldAPIName string) error {
	return queryDeleteAttribute(ctx, s.tx, recordID, fieldAPIName)
}

func (s *txStore) GetAttributes(ctx context.Context, recordID string) (model.AttributeMap, error) {
	return queryGetAttributes(ctx, s.tx, recordID)
}

func (s *txStore) GetAttributesForMany(ctx context.Context, recordIDs []string) (map[string]model.AttributeMap, error) {
	return queryGetAttributesForMany(ctx, s.tx, recordIDs)
}

func (s *txStore) ListRecordIDsByAttribute(ctx context.Context, fieldAPINames []string, value string) ([]string, error) {
	return queryListRecordIDsByAttribute(ctx, s.tx, fieldAPINames, value)
}

func (s *txStore) CreateRelationship(ctx context.Context, rel *model.Relationship) error {
	return queryCreateRelationship(ctx, s.tx, rel)
}

func (s *txStore) ListRelationshipsForObjectType(ctx context.Context, objectTypeID string) ([]*model.Relationship, error) {
	return queryListRelationshipsForObjectType(ctx, s.tx, objectTypeID)
}

func (s *txStore) DeleteRelationship(ctx context.Context, id string) error {
	return queryDeleteRelationship(ctx, s.tx, id)
}

func (s *txStore) SetVisibleFields(ctx context.Context, userID, objectTypeID string, fields []string) error {
	return querySetVisibleFields(ctx, s.tx, userID, objectTypeID, fields)
}

func (s *txStore) GetVisibleFields(ctx context.Context, userID, objectTypeID string) ([]string, error) {
	return queryGetVisibleFields(ctx, s.tx, userID, objectTypeID)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
