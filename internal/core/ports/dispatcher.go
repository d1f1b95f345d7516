package ports

import "context"

// SideEffectDispatcher triggers downstream side effects (geofence evaluation,
// history logging) decoupled from the primary write. Calls are best-effort:
// callers log failures and never let them affect primary-path state.
type SideEffectDispatcher interface {
	Notify(ctx context.Context, kind string, payload map[string]any) error
}
