package networks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

// Registry is the process-wide table of environment profiles. It is filled
// at startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile // by name and alternative name
	names    map[string]bool    // canonical names
}

// NewRegistry validates and registers profiles. Two profiles may not claim
// the same name or alternative name.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{
		profiles: map[string]Profile{},
		names:    map[string]bool{},
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		for _, name := range append([]string{p.Name}, p.AlternativeNames...) {
			if _, found := r.profiles[name]; found {
				return nil, fmt.Errorf("profile with name or alternative name of '%s' already exists", name)
			}
			r.profiles[name] = p.Clone()
		}
		r.names[p.Name] = true
	}
	return r, nil
}

// NewDefaultRegistry returns a registry holding the built-in profiles.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(supportedProfiles...)
	if err != nil {
		panic(err)
	}
	return r
}

// Add registers p, replacing any profile of the same name. It reports
// whether an existing profile was replaced.
func (r *Registry) Add(p Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.names[p.Name]
	if other, found := r.profiles[p.Name]; found && !replaced {
		return false, fmt.Errorf("name '%s' is already an alternative name of '%s'", p.Name, other.Name)
	}
	for _, an := range p.AlternativeNames {
		if other, found := r.profiles[an]; found && other.Name != p.Name {
			return false, fmt.Errorf("alternative name '%s' of '%s' is already used by '%s'", an, p.Name, other.Name)
		}
	}
	if replaced {
		old := r.profiles[p.Name]
		for _, name := range append([]string{old.Name}, old.AlternativeNames...) {
			delete(r.profiles, name)
		}
	}
	clone := p.Clone()
	r.profiles[p.Name] = clone
	for _, an := range p.AlternativeNames {
		r.profiles[an] = clone
	}
	r.names[p.Name] = true
	return replaced, nil
}

// GetProfile looks name up without touching the environment or the
// filesystem. The returned profile is a copy.
func (r *Registry) GetProfile(name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, found := r.profiles[name]
	if !found {
		return Profile{}, r.unknown(name)
	}
	return p.Clone(), nil
}

func (r *Registry) unknown(name string) error {
	candidates := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		candidates = append(candidates, n)
	}
	sort.Strings(candidates)

	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return fmt.Errorf("environment '%s': %w (known: %s)", name, ErrUnknownEnvironment, strings.Join(r.namesLocked(), ", "))
	}
	suggestions := []string{}
	for i, m := range matches {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return fmt.Errorf("environment '%s': %w, did you mean %s?", name, ErrUnknownEnvironment, strings.Join(suggestions, " or "))
}

// Names returns the canonical profile names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	res := make([]string, 0, len(r.names))
	for n := range r.names {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}

// Profiles returns copies of every profile, sorted by name.
func (r *Registry) Profiles() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []Profile{}
	for _, name := range r.namesLocked() {
		res = append(res, r.profiles[name].Clone())
	}
	return res
}

var globalSupportedProfiles = NewDefaultRegistry()

// GetProfile looks name up among the built-in profiles.
func GetProfile(name string) (Profile, error) {
	return globalSupportedProfiles.GetProfile(name)
}

func GetSupportedProfileNames() []string {
	return globalSupportedProfiles.Names()
}
