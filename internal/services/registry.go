// Package services holds the presentation-side services of MindMend: markdown
// rendering, transcript formatting, clipboard access and conversation export.
package services

import (
	"fmt"
	"sort"
	"sync"

	"mindmend/pkg/mindtypes"
)

// Registry manages service registration and lifecycle.
type Registry struct {
	mu       sync.RWMutex
	services map[string]mindtypes.Service
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]mindtypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if already registered.
func (r *Registry) RegisterService(service mindtypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	return nil
}

// GetService retrieves a service by name, returning an error if not found.
func (r *Registry) GetService(name string) (mindtypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services in name order.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.services[name].Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// GetAllServices returns a copy of all registered services.
func (r *Registry) GetAllServices() map[string]mindtypes.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]mindtypes.Service, len(r.services))
	for name, service := range r.services {
		result[name] = service
	}

	return result
}

// getTyped looks up a service and asserts its concrete type.
func getTyped[T mindtypes.Service](r *Registry, name string) (T, error) {
	var zero T
	service, err := r.GetService(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has unexpected type %T", name, service)
	}
	return typed, nil
}

// GlobalRegistry is the process-wide service registry.
var GlobalRegistry = NewRegistry()

// globalRegistryMu protects access to the GlobalRegistry variable itself
var globalRegistryMu sync.RWMutex

// GetGlobalRegistry returns the global service registry instance in a thread-safe manner
func GetGlobalRegistry() *Registry {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return GlobalRegistry
}

// SetGlobalRegistry sets the global service registry instance in a thread-safe manner
func SetGlobalRegistry(registry *Registry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	GlobalRegistry = registry
}

// GetGlobalTranscriptService returns the registered transcript service.
func GetGlobalTranscriptService() (*TranscriptService, error) {
	return getTyped[*TranscriptService](GetGlobalRegistry(), TranscriptServiceName)
}

// GetGlobalClipboardService returns the registered clipboard service.
func GetGlobalClipboardService() (*ClipboardService, error) {
	return getTyped[*ClipboardService](GetGlobalRegistry(), ClipboardServiceName)
}

// GetGlobalExportService returns the registered export service.
func GetGlobalExportService() (*ExportService, error) {
	return getTyped[*ExportService](GetGlobalRegistry(), ExportServiceName)
}
