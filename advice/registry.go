package advice

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultPriority = 10

// Entry is one piece of advice attached to a target method and phase.
type Entry struct {
	ID       string
	Target   string
	Method   string
	Phase    Phase
	Weaver   Weaver
	Priority int

	seq uint64
}

type Option func(e *Entry)

// WithPriority overrides DefaultPriority. Higher priorities run first.
func WithPriority(priority int) Option {
	return func(e *Entry) {
		e.Priority = priority
	}
}

// MethodAdvice holds the entries of one method grouped by phase.
type MethodAdvice map[Phase][]Entry

func (m MethodAdvice) Empty() bool {
	for _, entries := range m {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// Snapshot maps target → method → advice.
type Snapshot map[string]map[string]MethodAdvice

// Registry stores advice by target, method, phase and id.
//
// Registry is not safe for concurrent use: register everything before the
// first dispatch, after which concurrent reads are fine.
type Registry struct {
	advices map[string]map[string]map[Phase]map[string]*Entry
	seq     uint64
}

func NewRegistry() *Registry {
	return &Registry{
		advices: map[string]map[string]map[Phase]map[string]*Entry{},
	}
}

func (r *Registry) Before(id string, target string, w Weaver, opts ...Option) error {
	return r.Register(id, Before, target, w, opts...)
}

func (r *Registry) Around(id string, target string, w Weaver, opts ...Option) error {
	return r.Register(id, Around, target, w, opts...)
}

func (r *Registry) After(id string, target string, w Weaver, opts ...Option) error {
	return r.Register(id, After, target, w, opts...)
}

// Register attaches w to the method named by target ("Type@method").
// A target without a method names nothing to advise and is ignored before any
// other check.
// Registering an existing id again replaces its weaver and priority but keeps
// its position among entries of equal priority.
func (r *Registry) Register(id string, phase Phase, target string, w Weaver, opts ...Option) error {
	typ, method, ok := ParseTarget(target)
	if !ok {
		return nil
	}
	if !phase.valid() {
		return errors.Wrapf(ErrUnknownPhase, "advice '%s': %d", id, int(phase))
	}
	if isNil(w) {
		return errors.Wrapf(ErrNilWeaver, "advice '%s'", id)
	}
	if !w.accepts(phase) {
		return errors.Wrapf(ErrPhaseMismatch, "advice '%s': %T cannot run as %s advice", id, w, phase)
	}
	if id == "" {
		id = uuid.NewString()
	}
	entry := &Entry{
		ID:       id,
		Target:   typ,
		Method:   method,
		Phase:    phase,
		Weaver:   w,
		Priority: DefaultPriority,
	}
	for _, opt := range opts {
		opt(entry)
	}
	entries := r.phaseEntries(typ, method, phase)
	if prev, found := entries[id]; found {
		entry.seq = prev.seq
	} else {
		r.seq++
		entry.seq = r.seq
	}
	entries[id] = entry
	return nil
}

func isNil(w Weaver) bool {
	switch fn := w.(type) {
	case nil:
		return true
	case BeforeFunc:
		return fn == nil
	case AroundFunc:
		return fn == nil
	case AfterFunc:
		return fn == nil
	}
	return false
}

func (r *Registry) phaseEntries(typ, method string, phase Phase) map[string]*Entry {
	if r.advices == nil {
		r.advices = map[string]map[string]map[Phase]map[string]*Entry{}
	}
	methods, found := r.advices[typ]
	if !found {
		methods = map[string]map[Phase]map[string]*Entry{}
		r.advices[typ] = methods
	}
	phases, found := methods[method]
	if !found {
		phases = map[Phase]map[string]*Entry{}
		methods[method] = phases
	}
	entries, found := phases[phase]
	if !found {
		entries = map[string]*Entry{}
		phases[phase] = entries
	}
	return entries
}

// Get returns the entries of one phase of "Type@method" in registration order.
func (r *Registry) Get(phase Phase, target string) ([]Entry, error) {
	typ, method, ok := ParseTarget(target)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s advice for '%s'", phase, target)
	}
	entries := collect(r.advices[typ][method][phase])
	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s advice for '%s'", phase, target)
	}
	return entries, nil
}

// Lookup returns every phase of advice registered for the method.
// The result is empty when the method is not advised.
func (r *Registry) Lookup(target, method string) MethodAdvice {
	phases := r.advices[target][method]
	advice := make(MethodAdvice, len(phases))
	for phase, entries := range phases {
		if len(entries) == 0 {
			continue
		}
		advice[phase] = collect(entries)
	}
	return advice
}

func (r *Registry) Advised(target, method string) bool {
	for _, entries := range r.advices[target][method] {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}

// All returns a copy of the whole registry.
func (r *Registry) All() Snapshot {
	snapshot := make(Snapshot, len(r.advices))
	for typ, methods := range r.advices {
		advised := make(map[string]MethodAdvice, len(methods))
		for method := range methods {
			advice := r.Lookup(typ, method)
			if advice.Empty() {
				continue
			}
			advised[method] = advice
		}
		if len(advised) > 0 {
			snapshot[typ] = advised
		}
	}
	return snapshot
}

func collect(entries map[string]*Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	list := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, *entry)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].seq < list[j].seq
	})
	return list
}

// ParseTarget splits "Type@method". ok is false when no method is named.
func ParseTarget(target string) (typ string, method string, ok bool) {
	typ, method, found := strings.Cut(target, "@")
	if !found || method == "" {
		return target, "", false
	}
	return typ, method, true
}
