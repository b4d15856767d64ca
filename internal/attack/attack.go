// Package attack holds the built-in attack techniques and registers
// them explicitly at bootstrap. Techniques only ever reach the rest of
// the system through the registry.
package attack

import (
	"net/http"
	"time"

	"github.com/vectra-ai-research/halberd/internal/technique"
)

// defaultClient is shared by the built-in techniques. Techniques run
// inside the engine's step loop, so each request gets a timeout rather
// than hanging a run on a dead endpoint.
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// loginBase is the Microsoft identity platform endpoint.
const loginBase = "https://login.microsoftonline.com"

// RegisterAll registers every built-in technique with the registry.
// Called once at process start; registration order is the listing
// order shown to operators.
func RegisterAll(registry *technique.Registry) error {
	factories := []technique.Factory{
		NewTenantRecon,
		NewCheckUserValidity,
		NewReconDomainFederation,
	}

	for _, factory := range factories {
		if err := registry.Register(factory); err != nil {
			return err
		}
	}
	return nil
}
