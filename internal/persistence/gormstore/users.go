package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eprescribing/eprescribing/internal/domain/clinic"
)

type userRepo struct{ s *Store }

func (r userRepo) FindByUsername(ctx context.Context, username string) (*clinic.User, error) {
	var m userModel
	q := r.s.conn(ctx).Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("role") }).Where("username = ?", username)
	if err := first(q, &m, "user", username); err != nil {
		return nil, err
	}
	return m.user(), nil
}

func (r userRepo) Save(ctx context.Context, u *clinic.User) error {
	return r.s.InTx(ctx, clinic.TxReadWrite, func(ctx context.Context) error {
		q := r.s.conn(ctx)
		m := userModel{Username: u.Username, Password: u.Password, Enabled: u.Enabled}
		err := q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"password", "enabled"}),
		}).Create(&m).Error
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.Username, translate("user", err))
		}
		if err := q.Where("username = ?", u.Username).Delete(&roleModel{}).Error; err != nil {
			return fmt.Errorf("clear roles of %s: %w", u.Username, err)
		}
		if len(u.Roles) == 0 {
			return nil
		}
		roles := make([]roleModel, len(u.Roles))
		for i, role := range u.Roles {
			roles[i] = roleModel{Username: u.Username, Role: role}
		}
		if err := q.Create(&roles).Error; err != nil {
			return fmt.Errorf("add roles to %s: %w", u.Username, translate("user", err))
		}
		return nil
	})
}
