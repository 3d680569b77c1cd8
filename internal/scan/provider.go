package scan

import (
	"context"

	"github.com/melodia/melodiad/internal/plugin"
)

// Provider is the scan pipeline's view of one provide_tracks plugin's
// pool: lease an instance, read its static identity. Narrowed to an
// interface, rather than using *plugin.Pool directly, so prepareScans
// and scanTracks can be exercised against a fake in tests without a
// real sandboxed plugin.
type Provider interface {
	Acquire(ctx context.Context) (ProviderHandle, error)
	Metadata() plugin.Metadata
}

// ProviderHandle is an exclusive lease on a ProviderInstance.
type ProviderHandle interface {
	Instance() ProviderInstance
	Release()
}

// ProviderInstance is the subset of a loaded plugin instance's ABI the
// scan pipeline calls.
type ProviderInstance interface {
	PrepareScan(ctx context.Context) (plugin.PreparedScan, error)
	Scan(ctx context.Context, track plugin.TrackIdentifier) (plugin.ScanResult, error)
}

// poolProvider adapts *plugin.Pool to Provider. *plugin.Instance already
// satisfies ProviderInstance structurally; only Pool.Acquire and
// Handle.Instance need adapting, since their concrete return types
// (*plugin.Handle, *plugin.Instance) don't automatically widen to an
// interface-typed return.
type poolProvider struct{ pool *plugin.Pool }

func (p poolProvider) Acquire(ctx context.Context) (ProviderHandle, error) {
	h, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return handleAdapter{h}, nil
}

func (p poolProvider) Metadata() plugin.Metadata { return p.pool.Metadata() }

type handleAdapter struct{ h *plugin.Handle }

func (a handleAdapter) Instance() ProviderInstance { return a.h.Instance() }
func (a handleAdapter) Release()                   { a.h.Release() }
