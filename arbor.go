package arbor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arborlabs/arbor/internal/logging"
	"github.com/arborlabs/arbor/pkg/adapters/memory"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
	"github.com/arborlabs/arbor/pkg/ports"
	"github.com/arborlabs/arbor/pkg/session"
)

// Version is the release version of the arbor module.
const Version = "0.3.0"

// Service is the high-level entry point for embedders and the server
// adapters. It owns a graph store for authored documents and a session
// manager for durable playback state.
//
// Scene identifiers are always caller-chosen; the service only generates
// opaque session IDs.
type Service struct {
	graphs   ports.GraphStore
	sessions *session.Manager
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*svcConfig)

type svcConfig struct {
	sessionStore ports.SessionStore
	locker       ports.DistributedLocker
	logger       *slog.Logger
}

// WithSessionStore injects a session store (default: in-memory).
func WithSessionStore(store ports.SessionStore) Option {
	return func(c *svcConfig) {
		c.sessionStore = store
	}
}

// WithLocker enables distributed session locking for multi-replica
// deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *svcConfig) {
		c.locker = locker
	}
}

// WithLogger sets a structured logger (default: no-op).
func WithLogger(logger *slog.Logger) Option {
	return func(c *svcConfig) {
		c.logger = logger
	}
}

// New creates a Service over the given graph store.
func New(graphs ports.GraphStore, opts ...Option) *Service {
	cfg := &svcConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sessionStore == nil {
		cfg.sessionStore = memory.NewStore()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	mgrOpts := []session.Option{session.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(cfg.locker))
	}

	return &Service{
		graphs:   graphs,
		sessions: session.NewManager(cfg.sessionStore, mgrOpts...),
		logger:   cfg.logger,
	}
}

// --- Editor operations ---

// SaveGraph stores a dialog document under the given name. The document
// may contain dangling references; structural validity was already
// enforced when it was decoded.
func (s *Service) SaveGraph(ctx context.Context, name string, doc *dialog.Document) error {
	if err := s.graphs.Save(ctx, name, doc); err != nil {
		return err
	}
	s.logger.Info("graph saved", "graph", name, "scenes", len(doc.Scenes))
	return nil
}

// GraphDocument returns the stored document for a graph.
func (s *Service) GraphDocument(ctx context.Context, name string) (*dialog.Document, error) {
	return s.graphs.Load(ctx, name)
}

// LoadGraph loads and materializes a dialog graph by name.
func (s *Service) LoadGraph(ctx context.Context, name string) (*dialog.Graph, error) {
	doc, err := s.graphs.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return dialog.FromDocument(doc)
}

// ListGraphs returns the names of all stored graphs.
func (s *Service) ListGraphs(ctx context.Context) ([]string, error) {
	return s.graphs.List(ctx)
}

// DeleteGraph removes a stored graph. Sessions still referencing it
// keep their persisted state but fail with ErrDocumentNotFound on their
// next operation.
func (s *Service) DeleteGraph(ctx context.Context, name string) error {
	return s.graphs.Delete(ctx, name)
}

// Validate loads a graph and scans it for issues. With a non-empty
// startID the scan additionally reports scenes unreachable from it.
func (s *Service) Validate(ctx context.Context, name, startID string) ([]dialog.Issue, error) {
	g, err := s.LoadGraph(ctx, name)
	if err != nil {
		return nil, err
	}
	if startID == "" {
		return g.Validate(), nil
	}
	return g.ValidateFrom(startID), nil
}

// --- Player operations ---

// StartSession begins playback of a stored graph at startID and persists
// the session state under a fresh opaque ID.
func (s *Service) StartSession(ctx context.Context, graphName, startID string) (string, playback.View, error) {
	g, err := s.LoadGraph(ctx, graphName)
	if err != nil {
		return "", playback.View{}, err
	}
	sess, err := playback.Start(g, startID)
	if err != nil {
		return "", playback.View{}, err
	}

	sessionID := uuid.NewString()
	state := sess.Snapshot()
	state.Graph = graphName
	if err := s.sessions.Save(ctx, sessionID, &state); err != nil {
		return "", playback.View{}, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("session started", "session_id", sessionID, "graph", graphName, "start", startID)
	return sessionID, sess.Current(), nil
}

// CurrentView returns the view of a stored session.
func (s *Service) CurrentView(ctx context.Context, sessionID string) (playback.View, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return playback.View{}, err
	}
	sess, err := s.resume(ctx, state)
	if err != nil {
		return playback.View{}, err
	}
	return sess.Current(), nil
}

// Choose advances a stored session by the given answer index and returns
// the resulting view. The read-modify-write runs under the session lock.
func (s *Service) Choose(ctx context.Context, sessionID string, index int) (playback.View, error) {
	var view playback.View
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		sess, err := s.resume(ctx, state)
		if err != nil {
			return err
		}
		if err := sess.Choose(index); err != nil {
			return err
		}

		next := sess.Snapshot()
		next.Graph = state.Graph
		if err := s.sessions.Store().Save(ctx, sessionID, &next); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
		view = sess.Current()
		return nil
	})
	if err != nil {
		return playback.View{}, err
	}

	if view.Ended {
		s.logger.Info("session ended", "session_id", sessionID)
	}
	return view, nil
}

// EndSession discards a stored session.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ListSessions returns the IDs of all stored sessions.
func (s *Service) ListSessions(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// SessionState returns the raw persisted state of a session, for
// inspection tooling.
func (s *Service) SessionState(ctx context.Context, sessionID string) (*playback.State, error) {
	return s.sessions.Load(ctx, sessionID)
}

func (s *Service) resume(ctx context.Context, state *playback.State) (*playback.Session, error) {
	g, err := s.LoadGraph(ctx, state.Graph)
	if err != nil {
		return nil, err
	}
	return playback.Resume(g, *state), nil
}
