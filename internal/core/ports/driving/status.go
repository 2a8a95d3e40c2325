package driving

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// StatusService reports the health of external dependencies.
type StatusService interface {
	// Check pings every configured dependency.
	Check(ctx context.Context) []domain.ServiceStatus
}
