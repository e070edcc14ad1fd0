package main

import (
	"context"
	"fmt"
	"sync"
)

// Service is the lifecycle interface every registered service implements.
type Service interface {
	// Name returns the service name used in logs and error messages.
	Name() string
	// Initialize is called once all dependencies are wired.
	Initialize(ctx context.Context) error
	// Shutdown releases the service's resources.
	Shutdown() error
}

// serviceEntry is internal service metadata.
type serviceEntry struct {
	service  Service
	name     string
	critical bool // a critical service failing to initialize blocks startup
}

// ServiceRegistry manages all service instances in one place.
type ServiceRegistry struct {
	ctx      context.Context
	logger   func(string)
	services []serviceEntry     // in registration order
	byName   map[string]Service // indexed by name
	mu       sync.RWMutex
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(ctx context.Context, logger func(string)) *ServiceRegistry {
	return &ServiceRegistry{
		ctx:      ctx,
		logger:   logger,
		services: make([]serviceEntry, 0),
		byName:   make(map[string]Service),
	}
}

// Register registers a non-critical service. Duplicate names are an error.
func (r *ServiceRegistry) Register(svc Service) error {
	return r.register(svc, false)
}

// RegisterCritical registers a critical service. If it fails to initialize,
// the application does not start.
func (r *ServiceRegistry) RegisterCritical(svc Service) error {
	return r.register(svc, true)
}

func (r *ServiceRegistry) register(svc Service, critical bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := svc.Name()
	if _, exists := r.byName[name]; exists {
		return WrapError("ServiceRegistry", "Register", fmt.Errorf("service %q already registered", name))
	}

	r.services = append(r.services, serviceEntry{
		service:  svc,
		name:     name,
		critical: critical,
	})
	r.byName[name] = svc
	return nil
}

// Get looks up a service by name; the caller owns any type assertion.
func (r *ServiceRegistry) Get(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.byName[name]
	return svc, ok
}

// InitializeAll initializes services in registration order. A critical
// service failing stops startup; non-critical failures are logged and the
// application continues degraded.
func (r *ServiceRegistry) InitializeAll() error {
	r.mu.RLock()
	entries := make([]serviceEntry, len(r.services))
	copy(entries, r.services)
	r.mu.RUnlock()

	for _, entry := range entries {
		if err := entry.service.Initialize(r.ctx); err != nil {
			if entry.critical {
				r.logger(fmt.Sprintf("Critical service %q failed to initialize: %v", entry.name, err))
				return WrapError("ServiceRegistry", "InitializeAll", fmt.Errorf("critical service %q failed: %w", entry.name, err))
			}
			r.logger(fmt.Sprintf("Non-critical service %q failed to initialize (degraded): %v", entry.name, err))
		}
	}
	return nil
}

// ShutdownAll shuts services down in reverse registration order. Errors are
// logged and do not stop the remaining shutdowns.
func (r *ServiceRegistry) ShutdownAll() {
	r.mu.RLock()
	entries := make([]serviceEntry, len(r.services))
	copy(entries, r.services)
	r.mu.RUnlock()

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if err := entry.service.Shutdown(); err != nil {
			r.logger(fmt.Sprintf("Service %q shutdown error: %v", entry.name, err))
		}
	}
}
