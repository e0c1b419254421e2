// Package backend defines the contract between the scene adapter and the
// rendering backend that owns GPU-side resources.
//
// # Why Backend Exists
//
// The scene adapter is the only component allowed to mutate the live scene,
// but it never draws anything itself. Every structural or property change is
// forwarded to a Backend through exactly four primitives:
//
//   - Create allocates resources for a new scene node and returns a handle
//   - UpdateProperties pushes changed attributes of a node
//   - Destroy releases a node's resources
//   - RequestFrame signals that the scene changed and a frame is due
//
// The adapter calls nothing else, so a backend can be swapped (GPU renderer,
// headless recorder, remote bridge) without touching the reload pipeline.
//
// # Rendering Cadence
//
// RequestFrame must not block until the frame is drawn. Rendering happens on
// the backend's own schedule; the adapter only marks the scene dirty.
//
// # Typical Implementation
//
// See internal/inmemorybackend for the recording implementation used by the
// CLI and by tests.
package backend

import (
	"context"

	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// Handle is an opaque reference to backend-owned resources.
type Handle string

// Backend is the rendering side of the scene adapter.
//
// Implementations must be safe for concurrent use, although the adapter
// itself serializes its calls.
type Backend interface {
	// Create allocates a node of the given type. The returned handle stays
	// valid until Destroy is called for the same identity.
	Create(ctx context.Context, id nodeid.ID, typeTag string) (Handle, error)

	// UpdateProperties pushes attribute changes for a node. Only changed keys
	// are passed; a Null value means the attribute was removed.
	UpdateProperties(ctx context.Context, id nodeid.ID, props value.Props) error

	// Destroy releases the node's resources. Children are always destroyed
	// before their parent.
	Destroy(ctx context.Context, id nodeid.ID) error

	// RequestFrame asks for a redraw and returns immediately.
	RequestFrame(ctx context.Context) error
}
