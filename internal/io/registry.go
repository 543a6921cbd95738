package io

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"actuation/internal/actions"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrActuatorExists   = errors.New("actuator kind already registered")
	ErrActuatorNotFound = errors.New("actuator kind not found")
	ErrVersionMismatch  = errors.New("registry version mismatch")
	ErrIncompatible     = errors.New("actuator kind incompatible with environment")
)

type CompatibilityFn func(environment string) error

// ActuatorFactory builds a named actuator instance with the requested shape.
type ActuatorFactory func(name string, spec actions.Spec) (Actuator, error)

type ActuatorSpec struct {
	Kind          string
	Description   string
	Factory       ActuatorFactory
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

type registeredActuator struct {
	factory       ActuatorFactory
	description   string
	schemaVersion int
	codecVersion  int
	compatible    CompatibilityFn
}

var actuatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredActuator
}{
	m: make(map[string]registeredActuator),
}

func RegisterActuator(kind string, factory ActuatorFactory) error {
	return RegisterActuatorWithSpec(ActuatorSpec{
		Kind:          kind,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterActuatorWithSpec(spec ActuatorSpec) error {
	if spec.Kind == "" {
		return errors.New("actuator kind is required")
	}
	if spec.Factory == nil {
		return errors.New("actuator factory is required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, spec.SchemaVersion, spec.CodecVersion)
	}

	actuatorRegistry.mu.Lock()
	defer actuatorRegistry.mu.Unlock()

	if _, exists := actuatorRegistry.m[spec.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrActuatorExists, spec.Kind)
	}
	actuatorRegistry.m[spec.Kind] = registeredActuator{
		factory:       spec.Factory,
		description:   spec.Description,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
		compatible:    spec.Compatible,
	}
	return nil
}

// ResolveActuator builds an actuator called name from the registered kind,
// checking compatibility with environment and validating the shape.
func ResolveActuator(kind, name, environment string, spec actions.Spec) (Actuator, error) {
	entry, resolvedKind, ok := findRegisteredActuator(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActuatorNotFound, kind)
	}
	if err := actuatorCompatibilityError(resolvedKind, entry, NormalizeEnvironment(environment)); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("actuator %s: %w", name, err)
	}
	return entry.factory(name, spec.Clone())
}

func ActuatorCompatibleWithEnvironment(kind, environment string) bool {
	entry, resolvedKind, ok := findRegisteredActuator(kind)
	if !ok {
		return false
	}
	return actuatorCompatibilityError(resolvedKind, entry, NormalizeEnvironment(environment)) == nil
}

func ListActuatorsForEnvironment(environment string) []string {
	normalized := NormalizeEnvironment(environment)

	actuatorRegistry.mu.RLock()
	defer actuatorRegistry.mu.RUnlock()

	kinds := make([]string, 0, len(actuatorRegistry.m))
	for kind, entry := range actuatorRegistry.m {
		if actuatorCompatibilityError(kind, entry, normalized) != nil {
			continue
		}
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func ListActuators() []string {
	actuatorRegistry.mu.RLock()
	defer actuatorRegistry.mu.RUnlock()

	kinds := make([]string, 0, len(actuatorRegistry.m))
	for k := range actuatorRegistry.m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DescribeActuator returns the registered description of kind.
func DescribeActuator(kind string) (string, bool) {
	entry, _, ok := findRegisteredActuator(kind)
	if !ok {
		return "", false
	}
	return entry.description, true
}

// NormalizeEnvironment canonicalizes environment names for compatibility
// checks.
func NormalizeEnvironment(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.Trim(normalized, "-")
}

func actuatorCompatibilityError(kind string, entry registeredActuator, environment string) error {
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: %s", ErrVersionMismatch, kind)
	}
	if entry.compatible != nil {
		if err := entry.compatible(environment); err != nil {
			return fmt.Errorf("%w: actuator=%s: %v", ErrIncompatible, kind, err)
		}
	}
	return nil
}

func findRegisteredActuator(kind string) (registeredActuator, string, bool) {
	lookup := strings.TrimSpace(kind)
	if lookup == "" {
		return registeredActuator{}, "", false
	}

	actuatorRegistry.mu.RLock()
	defer actuatorRegistry.mu.RUnlock()

	if entry, ok := actuatorRegistry.m[lookup]; ok {
		return entry, lookup, true
	}

	canonical := CanonicalActuatorKind(lookup)
	if canonical != "" && canonical != lookup {
		if entry, ok := actuatorRegistry.m[canonical]; ok {
			return entry, canonical, true
		}
	}
	return registeredActuator{}, "", false
}

func resetRegistriesForTests() {
	actuatorRegistry.mu.Lock()
	actuatorRegistry.m = make(map[string]registeredActuator)
	actuatorRegistry.mu.Unlock()

	initializeDefaultComponents()
}
