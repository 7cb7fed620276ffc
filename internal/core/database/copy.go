package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

type CopyStats struct {
	Users       int64
	Evaluations int64
}

// Copy migrates dst and copies every user and evaluation from src,
// keeping primary keys. Rows whose key already exists in dst are left
// alone, so a rerun is safe.
func Copy(ctx context.Context, src, dst *gorm.DB, batch int) (CopyStats, error) {
	if batch <= 0 {
		batch = 500
	}
	var stats CopyStats
	if err := AutoMigrate(dst.WithContext(ctx)); err != nil {
		return stats, fmt.Errorf("migrate target: %w", err)
	}

	n, err := copyTable[domain.User](ctx, src, dst, batch)
	if err != nil {
		return stats, fmt.Errorf("copy users: %w", err)
	}
	stats.Users = n

	n, err = copyTable[domain.Evaluation](ctx, src, dst, batch)
	if err != nil {
		return stats, fmt.Errorf("copy evaluations: %w", err)
	}
	stats.Evaluations = n

	if dst.Dialector.Name() == "postgres" {
		for _, table := range []string{"users", "evaluations"} {
			q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1))", table)
			if err := dst.WithContext(ctx).Exec(q).Error; err != nil {
				return stats, fmt.Errorf("reset %s sequence: %w", table, err)
			}
		}
	}
	return stats, nil
}

func copyTable[T any](ctx context.Context, src, dst *gorm.DB, batch int) (int64, error) {
	var copied int64
	var rows []T
	res := src.WithContext(ctx).FindInBatches(&rows, batch, func(tx *gorm.DB, _ int) error {
		// Select("*") keeps zero values such as is_active=false.
		w := dst.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Select("*").Create(&rows)
		if w.Error != nil {
			return w.Error
		}
		copied += w.RowsAffected
		return nil
	})
	return copied, res.Error
}
