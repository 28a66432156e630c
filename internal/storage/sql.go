package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps blobs in the "blobs" table (sqlite or postgres).
type SQLStore struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewSQLStore binds a blob store to conn. A nil clock uses the system clock.
func NewSQLStore(conn *gorm.DB, clk clock.Clock) (*SQLStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if clk == nil {
		clk = clock.System()
	}
	return &SQLStore{db: conn, clock: clk}, nil
}

func (s *SQLStore) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return s.db
	}
	return s.db.WithContext(ctx)
}

func (s *SQLStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var blob models.Blob
	err := s.conn(ctx).Where("name = ?", name).Take(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read blob "+name)
	}
	return []byte(blob.Payload), true, nil
}

func (s *SQLStore) Put(ctx context.Context, name string, payload []byte) error {
	blob := models.Blob{
		Name:      name,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: s.clock.Now(),
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write blob "+name)
	}
	return nil
}
