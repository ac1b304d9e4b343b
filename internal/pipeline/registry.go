package pipeline

import (
	"strings"

	"reelcut/internal/services"
)

// Registry maps stage names to stages. It is written during startup and read
// concurrently afterwards, so it carries no lock.
type Registry struct {
	stages map[string]Stage
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register binds s under its name. Rebinding a name fails.
func (r *Registry) Register(s Stage) error {
	name := normalizeName(s.Name)
	if name == "" {
		return services.Wrap(services.ErrConfiguration, "registry", "register", "stage name is empty", nil)
	}
	if s.Run == nil {
		return services.Wrap(services.ErrConfiguration, "registry", "register", "stage "+name+" has no run function", nil)
	}
	if _, exists := r.stages[name]; exists {
		return &DuplicateStageError{Name: name}
	}
	s.Name = name
	r.stages[name] = s
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for static stage tables.
func (r *Registry) MustRegister(stages ...Stage) {
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Stages returns registered stages in registration order.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.stages[name])
	}
	return out
}

// Lookup finds a stage by name.
func (r *Registry) Lookup(name string) (Stage, bool) {
	s, ok := r.stages[normalizeName(name)]
	return s, ok
}

// Resolve maps names to stages, failing on the first unknown name.
func (r *Registry) Resolve(names []string) ([]Stage, error) {
	out := make([]Stage, 0, len(names))
	for _, name := range names {
		s, ok := r.Lookup(name)
		if !ok {
			return nil, &UnknownStageError{Name: strings.TrimSpace(name), Available: r.Names()}
		}
		out = append(out, s)
	}
	return out, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
