package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"reelcut/internal/services"
)

const (
	// StageTranscript is the default post-combination stage.
	StageTranscript = "transcript"
	// StageGenerateMetadata is the default trailing stage.
	StageGenerateMetadata = "generate_metadata"
)

// PlanOptions selects the special-cased stages.
type PlanOptions struct {
	// PostCombination names stages deferred until the whole-file context
	// exists. Nil means {"transcript"}.
	PostCombination []string
	// Trailing names the stage appended after everything else; empty
	// disables it.
	Trailing string
}

// Plan is a resolved pipeline split into its three phases.
type Plan struct {
	Main     []Stage
	Post     []Stage
	Trailing *Stage

	// pulled names post stages added for the trailing stage rather than
	// listed by the user.
	pulled map[string]bool
}

// NewPlan resolves names against reg. Every name is resolved before the plan
// is built so an unknown name fails regardless of its position.
func NewPlan(reg *Registry, names []string, opts PlanOptions) (*Plan, error) {
	resolved, err := reg.Resolve(names)
	if err != nil {
		return nil, err
	}
	postNames := opts.PostCombination
	if postNames == nil {
		postNames = []string{StageTranscript}
	}
	post := newNameSet(postNames)

	plan := &Plan{}
	seen := make(map[string]bool)
	for _, s := range resolved {
		if !post[s.Name] {
			plan.Main = append(plan.Main, s)
			continue
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		plan.Post = append(plan.Post, s)
	}

	if opts.Trailing == "" {
		return plan, nil
	}
	trailing, err := reg.Resolve([]string{opts.Trailing})
	if err != nil {
		return nil, err
	}
	plan.Trailing = &trailing[0]

	// Pull in a post-combination stage that supplies what the trailing
	// stage needs when the user pipeline does not.
	for _, f := range plan.Trailing.Requires {
		if plan.provides(f) {
			continue
		}
		for _, name := range postNames {
			s, ok := reg.Lookup(name)
			if !ok || seen[s.Name] || !slices.Contains(s.Provides, f) {
				continue
			}
			seen[s.Name] = true
			plan.Post = append(plan.Post, s)
			if plan.pulled == nil {
				plan.pulled = make(map[string]bool)
			}
			plan.pulled[s.Name] = true
			break
		}
	}
	return plan, nil
}

// Stages returns every stage in execution order.
func (p *Plan) Stages() []Stage {
	out := append([]Stage(nil), p.Main...)
	out = append(out, p.Post...)
	if p.Trailing != nil {
		out = append(out, *p.Trailing)
	}
	return out
}

// Check validates the field flow before any stage runs. When splitting, the
// post-combination context is rebuilt from the combined file, so it only
// carries seed fields. A main stage may not read an optional field that only
// a listed post-combination stage produces: the post stage runs later, so the
// main stage would see a missing or stale artifact.
func (p *Plan) Check(splitting bool) error {
	deferred := p.deferredFields()
	avail := newFieldSet(SeedFields...)
	for _, s := range p.Main {
		if err := checkStage(s, avail); err != nil {
			return err
		}
		for _, f := range s.Optional {
			producer, ok := deferred[f]
			if !ok || avail.has(f) {
				continue
			}
			missing := &MissingFieldError{Field: f, Stage: s.Name}
			msg := fmt.Sprintf("%q is only produced by %q, which runs after the main stages", f, producer)
			return services.Wrap(services.ErrConfiguration, s.Name, "check pipeline", msg, missing)
		}
		avail.add(s.Provides...)
	}

	postAvail := newFieldSet(SeedFields...)
	if !splitting {
		postAvail = avail.clone()
	}
	for _, s := range p.Post {
		if err := checkStage(s, postAvail); err != nil {
			return err
		}
		postAvail.add(s.Provides...)
	}

	if p.Trailing != nil {
		if err := checkStage(*p.Trailing, postAvail); err != nil {
			return err
		}
	}
	return nil
}

// Ready runs every stage's readiness check. Failures are configuration errors
// so a run aborts before any input is touched.
func (p *Plan) Ready() error {
	for _, s := range p.Stages() {
		if s.Ready == nil {
			continue
		}
		if err := s.Ready(); err != nil {
			if errors.Is(err, services.ErrConfiguration) {
				return err
			}
			return services.Wrap(services.ErrConfiguration, s.Name, "ready", "stage is not configured", err)
		}
	}
	return nil
}

// deferredFields maps each field provided by a user-listed post-combination
// stage to the first such stage.
func (p *Plan) deferredFields() map[Field]string {
	out := make(map[Field]string)
	for _, s := range p.Post {
		if p.pulled[s.Name] {
			continue
		}
		for _, f := range s.Provides {
			if _, ok := out[f]; !ok {
				out[f] = s.Name
			}
		}
	}
	return out
}

func (p *Plan) provides(f Field) bool {
	if slices.Contains(SeedFields, f) {
		return true
	}
	for _, s := range p.Main {
		if slices.Contains(s.Provides, f) {
			return true
		}
	}
	for _, s := range p.Post {
		if slices.Contains(s.Provides, f) {
			return true
		}
	}
	return false
}

func checkStage(s Stage, avail fieldSet) error {
	for _, f := range s.Requires {
		if avail.has(f) {
			continue
		}
		missing := &MissingFieldError{Field: f, Stage: s.Name}
		msg := fmt.Sprintf("no earlier stage provides %q", f)
		return services.Wrap(services.ErrConfiguration, s.Name, "check pipeline", msg, missing)
	}
	return nil
}

func newNameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[normalizeName(name)] = true
	}
	return set
}
