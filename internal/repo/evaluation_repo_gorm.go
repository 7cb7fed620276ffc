package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

type EvaluationRepo struct{ db *gorm.DB }

func NewEvaluationRepo(db *gorm.DB) *EvaluationRepo { return &EvaluationRepo{db: db} }

func (r *EvaluationRepo) Create(ctx context.Context, e *domain.Evaluation) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EvaluationRepo) FindByID(ctx context.Context, id uint) (*domain.Evaluation, error) {
	var e domain.Evaluation
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepo) ListByManager(ctx context.Context, managerEmail string, f domain.ListFilter) (domain.Page, error) {
	return r.page(ctx, f, func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("manager_id = ?", managerEmail)
		if f.Search != "" {
			tx = tx.Where("intern_id LIKE ?", "%"+f.Search+"%")
		}
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		return tx
	})
}

// ListByIntern ignores search and status filters.
func (r *EvaluationRepo) ListByIntern(ctx context.Context, internEmail string, f domain.ListFilter) (domain.Page, error) {
	return r.page(ctx, f, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("intern_id = ? AND status IN ?", internEmail, domain.WorkflowStatuses)
	})
}

// ListForHR shows pending_hr and completed evaluations unless a status
// filter narrows it further.
func (r *EvaluationRepo) ListForHR(ctx context.Context, f domain.ListFilter) (domain.Page, error) {
	return r.page(ctx, f, func(tx *gorm.DB) *gorm.DB {
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		} else {
			tx = tx.Where("status IN ?", []domain.Status{domain.StatusPendingHR, domain.StatusCompleted})
		}
		if f.Search != "" {
			like := "%" + f.Search + "%"
			tx = tx.Where("(intern_id LIKE ? OR manager_id LIKE ?)", like, like)
		}
		return tx
	})
}

func (r *EvaluationRepo) page(ctx context.Context, f domain.ListFilter, scope func(*gorm.DB) *gorm.DB) (domain.Page, error) {
	f = f.Normalize()
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.Evaluation{}).Scopes(scope)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return domain.Page{}, err
	}
	items := make([]domain.Evaluation, 0)
	if err := base().Order("id ASC").Offset(f.Skip).Limit(f.Limit).Find(&items).Error; err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Total: total, Evaluations: items}, nil
}

func (r *EvaluationRepo) Transition(ctx context.Context, e *domain.Evaluation, to domain.Status, ch domain.Changes) (bool, error) {
	updates := map[string]any{
		"status":  to,
		"version": gorm.Expr("version + 1"),
	}
	if ch.InternComment != nil {
		updates["intern_comment"] = *ch.InternComment
	}
	if ch.HRComment != nil {
		updates["hr_comment"] = *ch.HRComment
	}
	if ch.HRRatingAdjustment != nil {
		updates["hr_rating_adjustment"] = *ch.HRRatingAdjustment
	}
	res := r.db.WithContext(ctx).Model(&domain.Evaluation{}).
		Where("id = ? AND status = ? AND version = ?", e.ID, e.Status, e.Version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *EvaluationRepo) SetReport(ctx context.Context, id uint, report string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Evaluation{}).
		Where("id = ? AND (report IS NULL OR report = '')", id).
		Update("report", report)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
