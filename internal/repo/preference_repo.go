package repo

import (
	"context"
	"errors"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepo struct {
	db *gorm.DB
}

func NewPreferenceRepo(db *gorm.DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

// GetPreference 返回用户偏好，不存在时返回 nil, nil
func (r *PreferenceRepo) GetPreference(ctx context.Context, userID uint) (*objects.UserPreference, error) {
	var pref objects.UserPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// SavePreference 按 user_id 插入或覆盖三个偏好列表
func (r *PreferenceRepo) SavePreference(ctx context.Context, pref *objects.UserPreference) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"preferred_sources", "preferred_categories", "preferred_authors", "updated_at"}),
	}).Create(pref).Error
}
