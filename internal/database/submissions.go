package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"archway-web/internal/models"
)

// SubmissionRepo persists form submission attempts.
type SubmissionRepo struct {
	db *gorm.DB
}

func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

func (r *SubmissionRepo) Record(ctx context.Context, s *models.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Recent returns the latest submissions, newest first.
func (r *SubmissionRepo) Recent(ctx context.Context, limit int) ([]models.Submission, error) {
	var out []models.Submission
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountByStatus counts submissions of kind created at or after since, per status.
func (r *SubmissionRepo) CountByStatus(ctx context.Context, kind string, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("status, COUNT(*) AS total").
		Where("kind = ? AND created_at >= ?", kind, since).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
