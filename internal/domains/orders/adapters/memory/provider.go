package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// SandboxProvider fabricates payment intents locally. Used when no real
// provider is configured, so checkout still completes end to end; payments
// are then confirmed via the webhook endpoint with a shared test secret.
type SandboxProvider struct{}

var _ ports.PaymentProvider = (*SandboxProvider)(nil)

// NewSandboxProvider builds a provider that accepts every charge.
func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{}
}

func (*SandboxProvider) CreateIntent(_ context.Context, req ports.ChargeRequest) (*ports.ChargeIntent, error) {
	id := fmt.Sprintf("pi_sandbox_%s", uuid.NewString())
	return &ports.ChargeIntent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%d", id, req.OrderID),
	}, nil
}
