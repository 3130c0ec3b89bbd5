package llm

import (
	"fmt"
	"sort"
	"strings"
)

// ProviderFactory builds a configured Provider. Factories read their own
// credentials from the environment and fail fast when they are missing.
type ProviderFactory func() (Provider, error)

var providers = make(map[string]ProviderFactory)

// RegisterProvider makes a factory available under name. Provider packages
// call this from init, so importing a provider for side effects is enough to
// enable it.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider instantiates the provider registered under name.
func NewProvider(name string) (Provider, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (registered: %s)", name, strings.Join(registeredNames(), ", "))
	}
	return factory()
}

func registeredNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
