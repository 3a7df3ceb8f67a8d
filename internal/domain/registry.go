package domain

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed registry_default.yaml
var defaultRegistryYAML []byte

// Registry maps each reference type to the ordered list of task types that
// must exist for it. It is immutable after construction and safe for
// concurrent use.
type Registry struct {
	taskTypes map[ReferenceType][]TaskType
}

// registryFile is the on-disk YAML shape of a Registry.
type registryFile struct {
	ReferenceTypes map[string][]string `yaml:"reference_types"`
}

// NewRegistry builds a registry from an in-memory mapping. Duplicate task
// types within one reference type are rejected.
func NewRegistry(mapping map[ReferenceType][]TaskType) (*Registry, error) {
	r := &Registry{taskTypes: make(map[ReferenceType][]TaskType, len(mapping))}
	for refType, types := range mapping {
		if refType == "" {
			return nil, NewValidationError("reference_type", "cannot be empty", ErrValidation)
		}
		seen := make(map[TaskType]bool, len(types))
		for _, tt := range types {
			if tt == "" {
				return nil, NewValidationError(string(refType), "lists an empty task type", ErrTaskTypeEmpty)
			}
			if seen[tt] {
				return nil, NewValidationError(string(refType), fmt.Sprintf("lists task type %s twice", tt), ErrValidation)
			}
			seen[tt] = true
		}
		r.taskTypes[refType] = slices.Clone(types)
	}
	return r, nil
}

// ParseRegistry decodes a registry from YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing task type registry: %w", err)
	}
	if len(f.ReferenceTypes) == 0 {
		return nil, NewValidationError("reference_types", "must list at least one reference type", ErrValidation)
	}

	mapping := make(map[ReferenceType][]TaskType, len(f.ReferenceTypes))
	for refType, types := range f.ReferenceTypes {
		converted := make([]TaskType, 0, len(types))
		for _, tt := range types {
			converted = append(converted, TaskType(tt))
		}
		mapping[ReferenceType(refType)] = converted
	}
	return NewRegistry(mapping)
}

// LoadRegistry reads a registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task type registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// DefaultRegistry returns the registry shipped with the binary.
func DefaultRegistry() *Registry {
	r, err := ParseRegistry(defaultRegistryYAML)
	if err != nil {
		// ALLOW-PANIC: the embedded file is part of the build
		panic(fmt.Sprintf("embedded task type registry is invalid: %v", err))
	}
	return r
}

// TaskTypes returns the task types required by refType, in registry order.
// Unknown reference types require nothing.
func (r *Registry) TaskTypes(refType ReferenceType) []TaskType {
	return slices.Clone(r.taskTypes[refType])
}

// Allows reports whether taskType is one of the types registered for refType.
func (r *Registry) Allows(refType ReferenceType, taskType TaskType) bool {
	return slices.Contains(r.taskTypes[refType], taskType)
}

// Knows reports whether refType appears in the registry at all.
func (r *Registry) Knows(refType ReferenceType) bool {
	_, ok := r.taskTypes[refType]
	return ok
}

// ReferenceTypes returns every registered reference type, sorted.
func (r *Registry) ReferenceTypes() []ReferenceType {
	out := make([]ReferenceType, 0, len(r.taskTypes))
	for rt := range r.taskTypes {
		out = append(out, rt)
	}
	slices.Sort(out)
	return out
}
