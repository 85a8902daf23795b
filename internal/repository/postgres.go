package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/logger"
)

// record is the single table row: the name@domain key plus the serialized
// address record as one opaque value. The store never looks inside Value, so
// the record schema can evolve without migrations.
type record struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"column:value"`
}

func (record) TableName() string { return "records" }

type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Suppress gorm's "record not found" noise, missing keys are an expected
	// outcome here.
	gl := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate records table: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func storeKey(name, domain string) string {
	return name + "@" + domain
}

func (db *PostgresDB) Get(name, domain string) (*models.AddressRecord, error) {
	var row record
	if err := db.Conn.Where("key = ?", storeKey(name, domain)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return decodeRecord(row.Value)
}

func (db *PostgresDB) Insert(name, domain string, rec *models.AddressRecord) (bool, error) {
	value, err := encodeRecord(rec)
	if err != nil {
		return false, err
	}

	key := storeKey(name, domain)
	existed := false

	err = db.Conn.Transaction(func(tx *gorm.DB) error {
		var row record
		switch err := tx.Where("key = ?", key).First(&row).Error; {
		case err == nil:
			existed = true
			return tx.Model(&record{}).Where("key = ?", key).Update("value", value).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&record{Key: key, Value: value}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	return existed, nil
}

func (db *PostgresDB) Update(rec *models.AddressRecord) error {
	value, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	res := db.Conn.Model(&record{}).Where("key = ?", rec.Key()).Update("value", value)
	if res.Error != nil {
		return fmt.Errorf("failed to update record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (db *PostgresDB) Delete(name, domain string) error {
	res := db.Conn.Where("key = ?", storeKey(name, domain)).Delete(&record{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (db *PostgresDB) All() ([]*models.AddressRecord, error) {
	var rows []record
	if err := db.Conn.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	records := make([]*models.AddressRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row.Value)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", row.Key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func encodeRecord(rec *models.AddressRecord) ([]byte, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	return value, nil
}

func decodeRecord(value []byte) (*models.AddressRecord, error) {
	var rec models.AddressRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to deserialize record: %w", err)
	}
	return &rec, nil
}
