package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sheetTable mirrors one backend table; header travels as JSON alongside the
// version token.
type sheetTable struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"uniqueIndex;not null"`
	Version string `gorm:"not null"`
	Header  datatypes.JSON
}

// sheetRow is one table row; cells are a JSON string array so arbitrary
// column sets round-trip without schema changes.
type sheetRow struct {
	ID      uint `gorm:"primaryKey"`
	TableID uint `gorm:"index;not null"`
	Idx     int  `gorm:"not null"`
	Cells   datatypes.JSON
}

// SQLite is a Store backed by a local sqlite file, for single-binary
// deployments without a Google Sheets account.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(path string) (*SQLite, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&sheetTable{}, &sheetRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate store tables: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) ReadAll(ctx context.Context, name string) (Table, error) {
	var tbl sheetTable
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&tbl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Table{}, ErrTableNotFound
	}
	if err != nil {
		return Table{}, err
	}

	out := Table{Version: tbl.Version}
	if len(tbl.Header) > 0 {
		if err := json.Unmarshal(tbl.Header, &out.Header); err != nil {
			return Table{}, fmt.Errorf("decode header for %s: %w", name, err)
		}
	}

	var rows []sheetRow
	if err := s.db.WithContext(ctx).
		Where("table_id = ?", tbl.ID).Order("idx asc").Find(&rows).Error; err != nil {
		return Table{}, err
	}
	out.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		var cells []string
		if err := json.Unmarshal(r.Cells, &cells); err != nil {
			return Table{}, fmt.Errorf("decode row %d of %s: %w", r.Idx, name, err)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

func (s *SQLite) WriteAll(ctx context.Context, name string, t Table, expect string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tbl sheetTable
		err := tx.Where("name = ?", name).First(&tbl).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tbl = sheetTable{Name: name}
		case err != nil:
			return err
		default:
			if expect != "" && tbl.Version != expect {
				return ErrStaleWrite
			}
		}

		header, err := json.Marshal(t.Header)
		if err != nil {
			return err
		}
		tbl.Header = header
		tbl.Version = uuid.NewString()
		if err := tx.Save(&tbl).Error; err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", tbl.ID).Delete(&sheetRow{}).Error; err != nil {
			return err
		}
		for i, cells := range t.Rows {
			payload, err := json.Marshal(cells)
			if err != nil {
				return err
			}
			if err := tx.Create(&sheetRow{TableID: tbl.ID, Idx: i, Cells: payload}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) Clear(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tbl sheetTable
		err := tx.Where("name = ?", name).First(&tbl).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", tbl.ID).Delete(&sheetRow{}).Error; err != nil {
			return err
		}
		tbl.Header = nil
		tbl.Version = uuid.NewString()
		return tx.Save(&tbl).Error
	})
}

func (s *SQLite) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&sheetTable{}).Pluck("name", &names).Error
	return names, err
}
