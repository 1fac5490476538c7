package ports

import (
	"context"
	"time"

	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
)

// GraphStore persists dialog documents by name. It is the storage
// collaborator of the core: the graph itself never touches a filesystem
// or network, it only produces and consumes in-memory documents.
type GraphStore interface {
	// Save persists the document under the given name, replacing any
	// previous version.
	Save(ctx context.Context, name string, doc *dialog.Document) error

	// Load retrieves the document stored under name.
	// Returns dialog.ErrDocumentNotFound if no such document exists.
	Load(ctx context.Context, name string) (*dialog.Document, error)

	// List returns the names of all stored documents.
	List(ctx context.Context) ([]string, error)

	// Delete removes the document stored under name.
	Delete(ctx context.Context, name string) error
}

// SessionStore persists playback state by session ID, enabling durable
// "stop and resume" playback across processes.
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *playback.State) error

	// Load retrieves the state for a given session ID.
	// Returns playback.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*playback.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a previously acquired lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to a session across replicas.
type DistributedLocker interface {
	// Lock acquires a lock on key, expiring after ttl if never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// Watchable is implemented by stores that can notify about external
// changes to their backing medium. The channel carries the name of the
// changed document and closes when ctx is done.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}
