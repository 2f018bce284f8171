package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platewatch/internal/domain/plate"
)

// defaultKey is the fixed key the whole watchlist document lives under.
const defaultKey = "default"

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

type WatchlistDocument struct {
	Key       string         `gorm:"primaryKey"`
	Document  datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (WatchlistDocument) TableName() string {
	return "watchlist_documents"
}

// Load reads the full watchlist collection. A missing document yields an
// empty collection, not an error.
func (r *WatchlistRepository) Load(ctx context.Context) ([]plate.WatchedPlate, error) {
	var doc WatchlistDocument
	err := r.db.WithContext(ctx).Where("key = ?", defaultKey).First(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load watchlist document: %w", err)
	}

	var plates []plate.WatchedPlate
	if err := json.Unmarshal(doc.Document, &plates); err != nil {
		return nil, fmt.Errorf("decode watchlist document: %w", err)
	}
	return plates, nil
}

// Save serializes the full collection and upserts it under the fixed key.
func (r *WatchlistRepository) Save(ctx context.Context, plates []plate.WatchedPlate) error {
	if plates == nil {
		plates = []plate.WatchedPlate{}
	}
	raw, err := json.Marshal(plates)
	if err != nil {
		return fmt.Errorf("encode watchlist document: %w", err)
	}

	doc := WatchlistDocument{
		Key:       defaultKey,
		Document:  datatypes.JSON(raw),
		UpdatedAt: time.Now(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("save watchlist document: %w", err)
	}
	return nil
}
