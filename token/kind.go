package token

// Kind names one of the tokens the client keeps.
type Kind string

const (
	KindAccess       Kind = "access"
	KindRefresh      Kind = "refresh"
	KindRegistration Kind = "registration"
)

// Scope is the persistence lifetime of a token kind.
type Scope int

const (
	// ScopeSession lives as long as the current process.
	ScopeSession Scope = iota
	// ScopeDurable survives restarts (file or redis).
	ScopeDurable
)

func (k Kind) Scope() Scope {
	if k == KindRefresh {
		return ScopeDurable
	}
	return ScopeSession
}

// Key is the storage key for the kind.
func (k Kind) Key() string {
	return string(k) + "_token"
}

func (s Scope) String() string {
	if s == ScopeDurable {
		return "durable"
	}
	return "session"
}
