package adapters

import (
	"strings"

	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
)

// Registry holds gateway factories by provider name.
type Registry struct {
	factories map[string]paymentdomain.GatewayFactory
}

func NewRegistry(factories ...paymentdomain.GatewayFactory) *Registry {
	registry := &Registry{factories: make(map[string]paymentdomain.GatewayFactory)}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		provider := normalize(factory.Provider())
		if provider == "" {
			continue
		}
		registry.factories[provider] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[normalize(provider)]
	return ok
}

// Providers lists registered provider names.
func (r *Registry) Providers() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

func (r *Registry) NewGateway(provider string, cfg paymentdomain.GatewayConfig) (paymentdomain.Gateway, error) {
	if r == nil {
		return nil, paymentdomain.ErrGatewayNotFound
	}
	provider = normalize(provider)
	factory, ok := r.factories[provider]
	if !ok {
		return nil, paymentdomain.ErrGatewayNotFound
	}
	cfg.Provider = provider
	return factory.NewGateway(cfg)
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
