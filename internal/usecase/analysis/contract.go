package analysis

import "context"

// Completer produces a chat reply for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
