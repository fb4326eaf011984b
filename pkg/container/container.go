// pkg/container/container.go
package container

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"goaspect/pkg/aop"
	"goaspect/pkg/logger"
	"goaspect/pkg/proxy"
)

// Container represents a dependency injection container that manages
// services and, per spec.md §6.3, transparently substitutes a registered
// service's synthesized proxy whenever the service's concrete type is an
// aspect target (declares at least one pointcut).
type Container struct {
	mu               sync.RWMutex
	services         map[string]*ScopedService
	log              *zap.SugaredLogger
	lifecycleManager *LifecycleManager
	profileManager   *ProfileManager

	registry   *aop.Registry
	dispatcher *aop.Dispatcher
	generator  *proxy.Generator

	parent *Container
}

// NewContainer creates and initializes a new DI container.
func NewContainer() *Container {
	registry := aop.NewRegistry()
	generator := proxy.NewGenerator()
	dispatcher := aop.NewDispatcher(registry)

	return &Container{
		services: make(map[string]*ScopedService),
		log:      logger.Get(),
		lifecycleManager: NewLifecycleManager(),
		profileManager: &ProfileManager{
			profiles: make(map[string]*Profile),
			active:   make([]string, 0),
		},
		registry:   registry,
		dispatcher: dispatcher,
		generator:  generator,
	}
}

// Registry returns the container's advice registry, the declarative table
// standing in for spec.md's attribute-based annotations (§9).
func (c *Container) Registry() *aop.Registry { return c.registry }

// Generator returns the container's proxy generator (§4.3, §6.3).
func (c *Container) Generator() *proxy.Generator { return c.generator }

// Dispatcher returns the container's invocation dispatcher (§4.2).
func (c *Container) Dispatcher() *aop.Dispatcher { return c.dispatcher }

// IsAspectTarget is the single predicate of spec.md §6.3: reports whether
// a proxy type has been described for t on the container's Generator
// (Generator.Describe); the advice Registry is not consulted.
func (c *Container) IsAspectTarget(t reflect.Type) bool {
	return c.generator.IsAspectTarget(t)
}

// SetInstanceProvider installs the callback used to resolve TypeList
// advice types (§6.2) before any method using that form is first
// dispatched.
func (c *Container) SetInstanceProvider(p aop.InstanceProvider) {
	c.dispatcher.SetInstanceProvider(p)
}

// Register adds a new service to the container with the specified
// qualifier and scope. If service's concrete type is an aspect target,
// the value actually stored and resolved is its synthesized proxy, so
// callers transparently get intercepted behavior (spec.md §6.3).
func (c *Container) Register(qualifier string, service interface{}, scope Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Infow("Registering service",
		"qualifier", qualifier,
		"type", reflect.TypeOf(service),
		"scope", scope)

	if service == nil {
		c.log.Errorw("Cannot register nil service", "qualifier", qualifier)
		return fmt.Errorf("cannot register nil service for qualifier: %s", qualifier)
	}

	if _, exists := c.services[qualifier]; exists {
		c.log.Errorw("Service already registered", "qualifier", qualifier)
		return fmt.Errorf("service already registered for qualifier: %s", qualifier)
	}

	wrapped, err := c.maybeWrap(service)
	if err != nil {
		c.log.Errorw("Failed to synthesize proxy for service", "qualifier", qualifier, "error", err)
		return fmt.Errorf("failed to synthesize proxy for qualifier %s: %w", qualifier, err)
	}

	scopedService := &ScopedService{
		Scope:        scope,
		Factory:      func() interface{} { return wrapped },
		Dependencies: make([]string, 0),
	}

	if scope == Singleton {
		scopedService.Instance = wrapped
		if err := c.runPostConstruct(wrapped); err != nil {
			return err
		}
	}

	c.services[qualifier] = scopedService
	return nil
}

// maybeWrap substitutes service's synthesized proxy when its concrete
// type is an aspect target; otherwise it returns service unchanged.
func (c *Container) maybeWrap(service interface{}) (interface{}, error) {
	t := reflect.TypeOf(service)
	if !c.generator.IsAspectTarget(t) {
		return service, nil
	}
	wrapped, err := c.generator.Wrap(service, c.dispatcher)
	if err != nil {
		return nil, err
	}
	c.log.Infow("substituted aspect proxy for service", "type", t.String())
	return wrapped, nil
}

func (c *Container) runPostConstruct(instance interface{}) error {
	if lifecycleAware, ok := instance.(LifecycleAware); ok {
		for _, hook := range c.lifecycleManager.postConstructHooks {
			if err := hook.Handler(instance); err != nil {
				return fmt.Errorf("post-construct hook failed: %w", err)
			}
		}
		if err := lifecycleAware.PostConstruct(); err != nil {
			return fmt.Errorf("post-construct failed: %w", err)
		}
	}
	return nil
}

// Resolve retrieves a service from the container by its qualifier.
func (c *Container) Resolve(qualifier string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.log.Debugw("Resolving service", "qualifier", qualifier)

	scopedService, exists := c.services[qualifier]
	if !exists {
		if c.parent != nil {
			c.log.Debugw("Service not found in current container, checking parent",
				"qualifier", qualifier)
			return c.parent.Resolve(qualifier)
		}
		c.log.Errorw("Service not found", "qualifier", qualifier)
		return nil, fmt.Errorf("no service found for qualifier: %s", qualifier)
	}

	c.log.Debugw("Found service",
		"qualifier", qualifier,
		"scope", scopedService.Scope)

	switch scopedService.Scope {
	case Singleton:
		if scopedService.Instance == nil {
			c.log.Errorw("Singleton instance is nil", "qualifier", qualifier)
			return nil, fmt.Errorf("singleton instance is nil for qualifier: %s", qualifier)
		}
		return scopedService.Instance, nil
	case Prototype:
		instance := scopedService.Factory()
		if instance == nil {
			c.log.Errorw("Factory produced nil instance", "qualifier", qualifier)
			return nil, fmt.Errorf("factory produced nil instance for qualifier: %s", qualifier)
		}
		if err := c.runPostConstruct(instance); err != nil {
			return nil, err
		}
		return instance, nil
	default:
		c.log.Errorw("Unsupported scope",
			"qualifier", qualifier,
			"scope", scopedService.Scope)
		return nil, fmt.Errorf("unsupported scope: %v", scopedService.Scope)
	}
}

// InjectStruct injects dependencies into struct fields marked with "di" tags
func (c *Container) InjectStruct(target interface{}) error {
	c.log.Info("Starting struct injection")

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr {
		c.log.Errorw("Target must be a pointer", "actualKind", targetValue.Kind())
		return fmt.Errorf("target must be a pointer to struct, got: %v", targetValue.Kind())
	}

	targetValue = targetValue.Elem()
	if targetValue.Kind() != reflect.Struct {
		c.log.Errorw("Target must be a struct", "actualKind", targetValue.Kind())
		return fmt.Errorf("target must be a pointer to struct, got pointer to: %v", targetValue.Kind())
	}

	targetType := targetValue.Type()
	c.log.Infow("Processing struct for injection",
		"type", targetType.Name(),
		"numFields", targetType.NumField())

	for i := 0; i < targetType.NumField(); i++ {
		field := targetType.Field(i)
		qualifier, ok := field.Tag.Lookup("di")
		if !ok {
			c.log.Debugw("Skipping field without di tag", "field", field.Name)
			continue
		}

		c.log.Infow("Processing field for injection",
			"field", field.Name,
			"qualifier", qualifier,
			"required", field.Tag.Get("required"))

		fieldValue := targetValue.Field(i)
		if !fieldValue.CanSet() {
			c.log.Warnw("Field cannot be set", "field", field.Name)
			continue
		}

		service, err := c.Resolve(qualifier)
		if err != nil {
			if required, ok := field.Tag.Lookup("required"); ok && required == "true" {
				c.log.Errorw("Required service not found",
					"field", field.Name,
					"qualifier", qualifier,
					"error", err)
				return fmt.Errorf("required service not found for field %s: %w", field.Name, err)
			}
			c.log.Warnw("Optional service not found",
				"field", field.Name,
				"qualifier", qualifier)
			continue
		}

		serviceValue := reflect.ValueOf(service)
		if !serviceValue.Type().AssignableTo(fieldValue.Type()) {
			c.log.Errorw("Type mismatch",
				"field", field.Name,
				"expectedType", fieldValue.Type(),
				"actualType", serviceValue.Type())
			return fmt.Errorf("service type %v is not assignable to field type %v",
				serviceValue.Type(), fieldValue.Type())
		}

		fieldValue.Set(serviceValue)
		c.log.Infow("Successfully injected field",
			"field", field.Name,
			"qualifier", qualifier,
			"type", serviceValue.Type())
	}

	if err := c.runPostConstruct(target); err != nil {
		c.log.Errorw("Post-construct failed for injected struct", "error", err)
		return err
	}

	c.log.Info("Completed struct injection")
	return nil
}

// SetActiveProfiles sets the active profiles
func (c *Container) SetActiveProfiles(profiles ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profileManager.active = profiles
	c.log.Infow("Set active profiles", "profiles", profiles)
}

// GetLifecycleManager returns the lifecycle manager
func (c *Container) GetLifecycleManager() *LifecycleManager {
	return c.lifecycleManager
}

// Cleanup performs cleanup of container resources, aggregating every
// PreDestroy/hook failure with go.uber.org/multierr instead of stopping at
// the first one, so a failing singleton never masks another's cleanup
// error.
func (c *Container) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for qualifier, service := range c.services {
		if service.Scope != Singleton || service.Instance == nil {
			continue
		}
		lifecycleAware, ok := service.Instance.(LifecycleAware)
		if !ok {
			continue
		}
		for _, hook := range c.lifecycleManager.preDestroyHooks {
			if err := hook.Handler(service.Instance); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("pre-destroy hook failed for %s: %w", qualifier, err))
			}
		}
		if err := lifecycleAware.PreDestroy(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pre-destroy failed for %s: %w", qualifier, err))
		}
	}
	return errs
}

// Profile management
func (c *Container) IsProfileActive(profileName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, active := range c.profileManager.active {
		if active == profileName {
			return true
		}
	}
	return false
}

// SetParent sets the parent container for hierarchical DI
func (c *Container) SetParent(parent *Container) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parent = parent
}
