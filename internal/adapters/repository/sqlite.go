package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/socgpa/internal/domain/model"
	"github.com/okian/socgpa/pkg/metrics"
)

// SQLiteStore implements Store on a gorm SQLite database.
type SQLiteStore struct {
	db       *gorm.DB
	now      func() time.Time
	logLevel gormlogger.LogLevel
}

// compile-time check
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// migrates the schema.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{now: time.Now, logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NowFunc: func() time.Time { return s.now().UTC() },
		Logger:  gormlogger.Default.LogMode(s.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Achievement{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	s.db = db
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// observe records operation latency and counts failures other than misses.
func observe(op string, start time.Time, err error) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordErrorByComponent("repository", op)
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// UpsertUser creates or renames a user.
func (s *SQLiteStore) UpsertUser(ctx context.Context, id, fullName string) (u model.User, err error) {
	defer func(start time.Time) { observe("upsert_user", start, err) }(time.Now())

	id = strings.TrimSpace(id)
	if id == "" {
		return model.User{}, fmt.Errorf("upsert user: %w: empty id", ErrInvalidInput)
	}
	fullName = strings.TrimSpace(fullName)

	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if fullName != "" {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "updated_at"}),
		}
	}

	user := model.User{ID: id, FullName: fullName}
	if err := s.db.WithContext(ctx).Clauses(conflict).Create(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("upsert user: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return model.User{}, fmt.Errorf("reload user: %w", notFound(err))
	}
	return u, nil
}

// GetUser fetches a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (u model.User, err error) {
	defer func(start time.Time) { observe("get_user", start, err) }(time.Now())

	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %q: %w", id, notFound(err))
	}
	return u, nil
}

// CreateAchievement inserts a new achievement.
func (s *SQLiteStore) CreateAchievement(ctx context.Context, a *model.Achievement) (err error) {
	defer func(start time.Time) { observe("create_achievement", start, err) }(time.Now())

	if a == nil || strings.TrimSpace(a.UserID) == "" {
		return fmt.Errorf("create achievement: %w: missing user id", ErrInvalidInput)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusPending
	}

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

// GetAchievement fetches an achievement by id.
func (s *SQLiteStore) GetAchievement(ctx context.Context, id string) (a model.Achievement, err error) {
	defer func(start time.Time) { observe("get_achievement", start, err) }(time.Now())

	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return model.Achievement{}, fmt.Errorf("get achievement %q: %w", id, notFound(err))
	}
	return a, nil
}

// DeleteAchievement removes one achievement.
func (s *SQLiteStore) DeleteAchievement(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_achievement", start, err) }(time.Now())

	tx := s.db.WithContext(ctx).Delete(&model.Achievement{}, "id = ?", id)
	if tx.Error != nil {
		return fmt.Errorf("delete achievement %q: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("delete achievement %q: %w", id, ErrNotFound)
	}
	return nil
}

// ApprovedByUser lists approved achievements oldest first.
func (s *SQLiteStore) ApprovedByUser(ctx context.Context, userID string) (out []model.Achievement, err error) {
	defer func(start time.Time) { observe("approved_by_user", start, err) }(time.Now())

	err = s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusApproved).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list approved achievements: %w", err)
	}
	return out, nil
}

// SaveClassified persists a classified record and credits coins atomically.
func (s *SQLiteStore) SaveClassified(ctx context.Context, a *model.Achievement, coins int64) (err error) {
	defer func(start time.Time) { observe("save_classified", start, err) }(time.Now())

	if a == nil || a.ID == "" {
		return fmt.Errorf("save classified: %w: missing id", ErrInvalidInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(a).Error; err != nil {
			return fmt.Errorf("save achievement: %w", err)
		}
		if coins == 0 {
			return nil
		}
		res := tx.Model(&model.User{}).
			Where("id = ?", a.UserID).
			Updates(map[string]any{"soc_coins": gorm.Expr("soc_coins + ?", coins)})
		if res.Error != nil {
			return fmt.Errorf("credit coins: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("credit coins to %q: %w", a.UserID, ErrNotFound)
		}
		return nil
	})
	return err
}

// CountAchievements returns the number of stored achievements.
func (s *SQLiteStore) CountAchievements(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { observe("count_achievements", start, err) }(time.Now())

	if err := s.db.WithContext(ctx).Model(&model.Achievement{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count achievements: %w", err)
	}
	return n, nil
}

// CountUsers returns the number of stored users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { observe("count_users", start, err) }(time.Now())

	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
