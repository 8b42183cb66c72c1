package runtime

// Ability dispatch resolution.
//
// Each architype type declares two ordered ability lists (on-entry,
// on-exit), each ability tagged with the other-party type it activates
// for. Resolution at a traversal step is a table lookup keyed by
// (declaring-type, other-type): the merged, declaration-ordered list for a
// pairing is computed at most once per process and memoized. No matching
// entry means no abilities run for that pairing; that is not an error.
//
// Applicability is an exact TypeSpec match. Wildcard abilities (nil
// trigger) activate for every pairing and are merged in declaration order
// with the exact matches.

type dispatchKey struct {
	declaring string
	other     string
}

// entryAbilities returns the declaration-ordered on-entry abilities of
// declaring that are applicable to other.
func (r *Registry) entryAbilities(declaring, other *TypeSpec) []Ability {
	return r.applicable(r.entryTab, declaring, declaring.entry, other)
}

// exitAbilities returns the declaration-ordered on-exit abilities of
// declaring that are applicable to other.
func (r *Registry) exitAbilities(declaring, other *TypeSpec) []Ability {
	return r.applicable(r.exitTab, declaring, declaring.exit, other)
}

func (r *Registry) applicable(tab map[dispatchKey][]Ability, declaring *TypeSpec, declared []Ability, other *TypeSpec) []Ability {
	if declaring == nil || other == nil || len(declared) == 0 {
		return nil
	}
	key := dispatchKey{declaring: declaring.name, other: other.name}

	r.mu.RLock()
	cached, ok := tab[key]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	// First lookup for this pairing: filter in declaration order, then
	// memoize. Recomputing on a racing first lookup is harmless; both
	// goroutines derive the same list from immutable inputs.
	var merged []Ability
	for _, ab := range declared {
		if ab.Trigger == nil || ab.Trigger == other {
			merged = append(merged, ab)
		}
	}

	r.mu.Lock()
	tab[key] = merged
	r.mu.Unlock()
	return merged
}
