// ABOUTME: Provider registry mapping vendor API identifiers to provider factories
// ABOUTME: Thread-safe registration and lookup of ApiProvider implementations

package ai

import (
	"context"
	"sort"
	"sync"
)

// Api identifies a vendor API.
type Api string

const (
	ApiAnthropic Api = "anthropic"
)

// ProviderConfig carries the connection settings handed to a factory.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Headers map[string]string // extra headers sent with every request
}

// ProviderFactory creates an ApiProvider from connection settings.
type ProviderFactory func(cfg ProviderConfig) ApiProvider

// ApiProvider is the interface all LLM providers implement.
type ApiProvider interface {
	// Api returns the provider's API identifier.
	Api() Api

	// Stream initiates a streaming chat completion and returns its snapshots.
	// The context.Context controls cancellation of the underlying HTTP request.
	Stream(ctx context.Context, req *Request, opts *StreamOptions) *ResponseStream
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Api]ProviderFactory)
)

// RegisterProvider registers a factory for the given API.
func RegisterProvider(api Api, factory ProviderFactory) {
	registryMu.Lock()
	registry[api] = factory
	registryMu.Unlock()
}

// GetProvider returns a provider for the given API.
// Returns nil if no provider is registered.
func GetProvider(api Api, cfg ProviderConfig) ApiProvider {
	registryMu.RLock()
	factory, ok := registry[api]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory(cfg)
}

// HasProvider checks if a provider is registered for the given API.
func HasProvider(api Api) bool {
	registryMu.RLock()
	_, ok := registry[api]
	registryMu.RUnlock()
	return ok
}

// RegisteredApis lists registered API identifiers in sorted order.
func RegisteredApis() []Api {
	registryMu.RLock()
	out := make([]Api, 0, len(registry))
	for api := range registry {
		out = append(out, api)
	}
	registryMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
