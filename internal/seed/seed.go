// Package seed bootstraps a small demo portfolio for local development.
package seed

import (
	"context"
	"errors"
	"time"

	leasedomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/lease/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Demo identities. Use "landlord:1" or "tenant:2" in the X-Actor header to
// act as them.
const (
	DemoLandlordID snowflake.ID = 1
	DemoTenantID   snowflake.ID = 2
	DemoTenant2ID  snowflake.ID = 3
)

type demoLease struct {
	propertyID snowflake.ID
	tenantID   snowflake.ID
	rent       string
	dueDay     int
}

var demoLeases = []demoLease{
	{propertyID: 10, tenantID: DemoTenantID, rent: "1500.00", dueDay: 1},
	{propertyID: 11, tenantID: DemoTenant2ID, rent: "2200.00", dueDay: 31},
}

// EnsureDemoLeases stores the demo leases unless the demo landlord already
// has any. It returns the number of leases created.
func EnsureDemoLeases(ctx context.Context, db *gorm.DB, node *snowflake.Node, repo leasedomain.Repository, now time.Time) (int, error) {
	if db == nil || node == nil || repo == nil {
		return 0, errors.New("seed dependencies are required")
	}

	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&leasedomain.Lease{}).
			Where("landlord_id = ?", DemoLandlordID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		for _, demo := range demoLeases {
			lease := leasedomain.Lease{
				ID:            node.Generate(),
				PropertyID:    demo.propertyID,
				TenantID:      demo.tenantID,
				LandlordID:    DemoLandlordID,
				RentAmount:    decimal.RequireFromString(demo.rent),
				PaymentDueDay: demo.dueDay,
				Status:        leasedomain.LeaseStatusActive,
				StartDate:     start,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := repo.Insert(ctx, tx, &lease); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
