package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
)

// RecentLimit is how many entries the operator listing shows
const RecentLimit = 50

// ActivityReader is the repository method Recent needs
type ActivityReader interface {
	ListActivity(ctx context.Context, gymID uuid.UUID, limit int) ([]models.ActivityLog, error)
}

// Recent returns the latest activity of the scoped gym, newest first. Only
// operators read the log; no billing rule depends on it.
func Recent(ctx context.Context, reader ActivityReader, scope tenant.Scope) ([]models.ActivityLog, error) {
	entries, err := reader.ListActivity(ctx, scope.GymID(), RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	if entries == nil {
		entries = []models.ActivityLog{}
	}
	return entries, nil
}
