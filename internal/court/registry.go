// Package court holds the static table of courts reachable through DataJud.
package court

import "fmt"

// Court describes one court index exposed by the public API.
type Court struct {
	Alias    string `json:"alias"`
	Name     string `json:"nome"`
	Endpoint string `json:"endpoint"`
}

// Registry is an ordered, immutable set of courts. Declaration order is the
// default fan-out and display order.
type Registry struct {
	courts  []Court
	byAlias map[string]int
}

// NewRegistry builds a registry, rejecting empty or duplicate aliases.
func NewRegistry(courts ...Court) (*Registry, error) {
	r := &Registry{
		courts:  make([]Court, 0, len(courts)),
		byAlias: make(map[string]int, len(courts)),
	}
	for _, c := range courts {
		if c.Alias == "" {
			return nil, fmt.Errorf("court %q has no alias", c.Name)
		}
		if _, exists := r.byAlias[c.Alias]; exists {
			return nil, fmt.Errorf("court %s already registered", c.Alias)
		}
		r.byAlias[c.Alias] = len(r.courts)
		r.courts = append(r.courts, c)
	}
	return r, nil
}

// Default returns the federal, superior and electoral courts searched by default.
func Default() *Registry {
	r, err := NewRegistry(
		endpointFor("trf1", "Tribunal Regional Federal da 1ª Região"),
		endpointFor("trf2", "Tribunal Regional Federal da 2ª Região"),
		endpointFor("trf3", "Tribunal Regional Federal da 3ª Região"),
		endpointFor("trf4", "Tribunal Regional Federal da 4ª Região"),
		endpointFor("trf5", "Tribunal Regional Federal da 5ª Região"),
		endpointFor("trf6", "Tribunal Regional Federal da 6ª Região"),
		endpointFor("stj", "Superior Tribunal de Justiça"),
		endpointFor("stf", "Supremo Tribunal Federal"),
		endpointFor("tst", "Tribunal Superior do Trabalho"),
		endpointFor("tse", "Tribunal Superior Eleitoral"),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func endpointFor(alias, name string) Court {
	return Court{Alias: alias, Name: name, Endpoint: "api_publica_" + alias}
}

// Resolve looks a court up by alias. A miss is not an error.
func (r *Registry) Resolve(alias string) (Court, bool) {
	i, ok := r.byAlias[alias]
	if !ok {
		return Court{}, false
	}
	return r.courts[i], true
}

// All returns the courts in declaration order.
func (r *Registry) All() []Court {
	out := make([]Court, len(r.courts))
	copy(out, r.courts)
	return out
}

// Len returns the number of registered courts.
func (r *Registry) Len() int {
	return len(r.courts)
}

// Select returns the registered courts whose alias appears in aliases, in
// registry order. Unknown aliases are dropped; an empty subset selects all.
func (r *Registry) Select(aliases []string) []Court {
	if len(aliases) == 0 {
		return r.All()
	}
	wanted := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		wanted[a] = struct{}{}
	}
	out := make([]Court, 0, len(aliases))
	for _, c := range r.courts {
		if _, ok := wanted[c.Alias]; ok {
			out = append(out, c)
		}
	}
	return out
}
