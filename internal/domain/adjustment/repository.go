package adjustment

import "context"

type TimeAdjustmentRepository interface {
	Create(ctx context.Context, a TimeAdjustment) (TimeAdjustment, error)
	GetByID(ctx context.Context, tenantID string, id string) (TimeAdjustment, error)

	// Update writes status, decision and resulting record fields.
	Update(ctx context.Context, a TimeAdjustment) (TimeAdjustment, error)

	ExistsPendingForRecord(ctx context.Context, tenantID string, recordID string) (bool, error)
	List(ctx context.Context, tenantID string, filter AdjustmentFilter) ([]TimeAdjustment, int64, error)
	CountPending(ctx context.Context, tenantID string) (int64, error)

	// CountPendingByTenant serves the reminder sweep.
	CountPendingByTenant(ctx context.Context) (map[string]int64, error)
}
