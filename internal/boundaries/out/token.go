package out

import (
	"time"

	"github.com/cainy/dockhand/internal/domain"
)

// TokenIssuer defines the contract for minting scoped bearer tokens used
// to authenticate outbound registry calls.
type TokenIssuer interface {
	Issue(scopes []domain.AccessScope, ttl time.Duration) (string, error)
}
