package repository

import (
	"context"
	"errors"

	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() leasedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, lease *leasedomain.Lease) error {
	if lease == nil {
		return leasedomain.ErrInvalidLease
	}
	return db.Classify(conn.WithContext(ctx).Create(lease).Error)
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*leasedomain.Lease, error) {
	var lease leasedomain.Lease
	err := conn.WithContext(ctx).Where("id = ?", id).First(&lease).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leasedomain.ErrNotFound
		}
		return nil, db.Classify(err)
	}
	return &lease, nil
}

// ListBillableIDs returns ids only, so a row that fails to load surfaces
// when that lease is read rather than failing the whole listing.
func (r *repo) ListBillableIDs(ctx context.Context, conn *gorm.DB, filter leasedomain.ActiveFilter) ([]snowflake.ID, error) {
	query := conn.WithContext(ctx).
		Model(&leasedomain.Lease{}).
		Where("status = ?", leasedomain.LeaseStatusActive).
		Where("start_date < ?", filter.PeriodEnd).
		Where("(end_date IS NULL OR end_date >= ?)", filter.PeriodStart)
	if filter.LandlordID != 0 {
		query = query.Where("landlord_id = ?", filter.LandlordID)
	}

	var ids []snowflake.ID
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, db.Classify(err)
	}
	return ids, nil
}
