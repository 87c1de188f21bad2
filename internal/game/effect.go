package game

import "family-quiz-sync/internal/domain"

// EffectKind selects the store operation an Effect performs.
type EffectKind int

const (
	// EffectWrite overwrites the whole document (nil Record clears it).
	EffectWrite EffectKind = iota
	// EffectPatch overwrites only the named fields.
	EffectPatch
	// EffectTransact runs Mutation through the store's retrying transaction.
	EffectTransact
)

func (k EffectKind) String() string {
	switch k {
	case EffectWrite:
		return "write"
	case EffectPatch:
		return "patch"
	case EffectTransact:
		return "transact"
	}
	return "unknown"
}

// Effect is a store call decided by Reduce and carried out by the client runtime.
type Effect struct {
	Kind     EffectKind
	Name     string
	Record   *domain.SessionRecord
	Patch    domain.Patch
	Mutation domain.Mutation
}

func writeEffect(name string, rec *domain.SessionRecord) Effect {
	return Effect{Kind: EffectWrite, Name: name, Record: rec}
}

func patchEffect(name string, p domain.Patch) Effect {
	return Effect{Kind: EffectPatch, Name: name, Patch: p}
}

func transactEffect(name string, m domain.Mutation) Effect {
	return Effect{Kind: EffectTransact, Name: name, Mutation: m}
}
