package ports

import "context"

// Verb classifies a mutating operation for authorization purposes.
type Verb string

const (
	VerbAdd    Verb = "add"
	VerbEdit   Verb = "edit"
	VerbRemove Verb = "remove"
)

// AccessGuard decides whether the current caller may perform verb on the
// named resource. The caller identity travels in ctx (placed there by the
// transport layer); the core only needs the yes/no answer and maps a
// denial to domain.ErrUnauthorized.
type AccessGuard interface {
	Authorize(ctx context.Context, verb Verb, resource string) bool
}

// GuardFunc adapts a function to the AccessGuard interface.
type GuardFunc func(ctx context.Context, verb Verb, resource string) bool

func (f GuardFunc) Authorize(ctx context.Context, verb Verb, resource string) bool {
	return f(ctx, verb, resource)
}

// AllowAll authorizes everything. The default for embedded use; servers
// exposed to untrusted callers must install a real guard.
func AllowAll() AccessGuard {
	return GuardFunc(func(context.Context, Verb, string) bool { return true })
}
