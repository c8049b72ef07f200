package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entityRow is the backing gorm model. All entity tables share one physical
// table keyed by (table, partition, row); properties are a JSON document.
type entityRow struct {
	Table        string         `gorm:"column:table_name;primaryKey;size:64"`
	PartitionKey string         `gorm:"column:partition_key;primaryKey;size:255"`
	RowKey       string         `gorm:"column:row_key;primaryKey;size:255"`
	Properties   datatypes.JSON `gorm:"column:properties"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
}

func (entityRow) TableName() string { return "entities" }

// GormStore implements TableStore on a relational database through gorm.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGormStore(db *gorm.DB, log *zap.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&entityRow{}); err != nil {
		return nil, fmt.Errorf("migrate entities table: %w", err)
	}
	return &GormStore{
		db:  db,
		log: log.Named("store.gorm"),
	}, nil
}

func (s *GormStore) Upsert(ctx context.Context, table string, entity Entity) error {
	props, err := json.Marshal(entity.Properties)
	if err != nil {
		return fmt.Errorf("marshal entity properties: %w", err)
	}
	row := entityRow{
		Table:        table,
		PartitionKey: entity.PartitionKey,
		RowKey:       entity.RowKey,
		Properties:   props,
		UpdatedAt:    time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "table_name"}, {Name: "partition_key"}, {Name: "row_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"properties", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return s.unavailable("upsert", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, table, partition, row string) (Entity, error) {
	var rec entityRow
	err := s.db.WithContext(ctx).
		Where("table_name = ? AND partition_key = ? AND row_key = ?", table, partition, row).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entity{}, ErrNotFound
	}
	if err != nil {
		return Entity{}, s.unavailable("get", err)
	}
	return decodeRow(rec)
}

func (s *GormStore) Query(ctx context.Context, table string, filter Filter) ([]Entity, error) {
	stmt := s.db.WithContext(ctx).
		Model(&entityRow{}).
		Where("table_name = ?", table)
	if partition, ok := filter.Partition(); ok {
		stmt = stmt.Where("partition_key = ?", partition)
	}
	if row, ok := filter.Row(); ok {
		stmt = stmt.Where("row_key = ?", row)
	}

	var rows []entityRow
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, s.unavailable("query", err)
	}

	entities := make([]Entity, 0, len(rows))
	for _, rec := range rows {
		entity, err := decodeRow(rec)
		if err != nil {
			return nil, err
		}
		// Property clauses are evaluated here; the table has no index on
		// individual properties, so these queries scan the table.
		if !filter.Matches(entity) {
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (s *GormStore) Delete(ctx context.Context, table, partition, row string) error {
	res := s.db.WithContext(ctx).
		Where("table_name = ? AND partition_key = ? AND row_key = ?", table, partition, row).
		Delete(&entityRow{})
	if res.Error != nil {
		return s.unavailable("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) unavailable(op string, err error) error {
	s.log.Warn("store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

func decodeRow(rec entityRow) (Entity, error) {
	props := map[string]Value{}
	if len(rec.Properties) > 0 {
		if err := json.Unmarshal(rec.Properties, &props); err != nil {
			return Entity{}, fmt.Errorf("decode entity properties: %w", err)
		}
	}
	return Entity{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Timestamp:    rec.UpdatedAt,
		Properties:   props,
	}, nil
}
