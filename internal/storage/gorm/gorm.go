// Package gormstorage implements storage.Backend on top of GORM. The same
// backend serves SQLite and Postgres; only the connection differs.
package gormstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/OCAP2/handpose/internal/storage"
	"github.com/OCAP2/handpose/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PoseRecord is one side of a named pose.
type PoseRecord struct {
	ID         uint           `gorm:"primarykey"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	Name       string         `gorm:"size:64;not null;uniqueIndex:idx_pose_name_side"`
	Handedness string         `gorm:"size:8;not null;uniqueIndex:idx_pose_name_side"`
	Snapshot   datatypes.JSON `gorm:"not null"`
}

// TableName sets the table name
func (*PoseRecord) TableName() string {
	return "hand_poses"
}

// Backend stores poses through a gorm.DB.
type Backend struct {
	db  *gorm.DB
	log *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// New creates a GORM backend. A nil logger discards output.
func New(db *gorm.DB, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{db: db, log: log}
}

// Init migrates the pose table.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("no database connection")
	}
	if err := b.db.AutoMigrate(&PoseRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.log.Info("Pose library ready", "dialect", b.db.Dialector.Name())
	return nil
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SavePose upserts the pose on (name, handedness).
func (b *Backend) SavePose(name string, side core.Handedness, snap core.PoseSnapshot) error {
	if name == "" {
		return fmt.Errorf("pose name is empty")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	rec := PoseRecord{Name: name, Handedness: side.String(), Snapshot: datatypes.JSON(raw)}
	err = b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "handedness"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save pose %q: %w", name, err)
	}

	b.log.Debug("Saved pose", "name", name, "handedness", side.String())
	return nil
}

// LoadPose returns a stored pose.
func (b *Backend) LoadPose(name string, side core.Handedness) (core.PoseSnapshot, error) {
	var rec PoseRecord
	err := b.db.Where("name = ? AND handedness = ?", name, side.String()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.PoseSnapshot{}, fmt.Errorf("%w: %s %q", storage.ErrPoseNotFound, side, name)
	}
	if err != nil {
		return core.PoseSnapshot{}, fmt.Errorf("failed to load pose %q: %w", name, err)
	}

	var snap core.PoseSnapshot
	if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
		return core.PoseSnapshot{}, fmt.Errorf("failed to decode pose %q: %w", name, err)
	}
	return snap, nil
}

// ListPoses returns the distinct pose names, sorted.
func (b *Backend) ListPoses() ([]string, error) {
	var names []string
	err := b.db.Model(&PoseRecord{}).Distinct("name").Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list poses: %w", err)
	}
	return names, nil
}
