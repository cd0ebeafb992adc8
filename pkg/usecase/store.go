package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/utils/errutil"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RiskStore owns the risk collection and the form draft for one session.
// Every change goes through Dispatch; collection changes are written to
// storage before Dispatch returns. Storage failures are logged and never
// undo the in-memory change.
type RiskStore struct {
	mu                sync.Mutex
	storage           interfaces.Storage
	key               string
	now               func() time.Time
	newID             func() model.RiskID
	preserveCreatedAt bool
	tracerProvider    trace.TracerProvider
	state             State
}

const tracerName = "github.com/secmon-lab/riskmatrix/pkg/usecase"

type Option func(*RiskStore)

// WithStorageKey overrides the key the collection is stored under
func WithStorageKey(key string) Option {
	return func(s *RiskStore) {
		s.key = key
	}
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(s *RiskStore) {
		s.now = now
	}
}

// WithIDGenerator replaces the RiskID generator
func WithIDGenerator(newID func() model.RiskID) Option {
	return func(s *RiskStore) {
		s.newID = newID
	}
}

// WithPreserveCreatedAt keeps the original CreatedAt when an edit is
// committed. By default the edit time replaces it.
func WithPreserveCreatedAt(enabled bool) Option {
	return func(s *RiskStore) {
		s.preserveCreatedAt = enabled
	}
}

// WithTracerProvider sets the provider of the per-command spans. The
// global provider is used when unset.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *RiskStore) {
		s.tracerProvider = tp
	}
}

func (s *RiskStore) tracer() trace.Tracer {
	if s.tracerProvider != nil {
		return s.tracerProvider.Tracer(tracerName)
	}
	return otel.Tracer(tracerName)
}

// NewRiskStore creates an empty store. Call Load to read the persisted
// collection. A nil storage keeps the collection in memory only.
func NewRiskStore(storage interfaces.Storage, opts ...Option) *RiskStore {
	s := &RiskStore{
		storage: storage,
		key:     DefaultStorageKey,
		now:     time.Now,
		newID:   model.NewRiskID,
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key of the collection
func (s *RiskStore) Key() string {
	return s.key
}

func (s *RiskStore) env() transitionEnv {
	return transitionEnv{
		now: func() time.Time {
			// Stored timestamps carry milliseconds; stamp at the same precision
			return s.now().UTC().Truncate(time.Millisecond)
		},
		newID:             s.newID,
		preserveCreatedAt: s.preserveCreatedAt,
	}
}

// Load replaces the collection with the persisted one. A missing or
// unreadable entry yields an empty collection and is not an error. The
// draft is reset.
func (s *RiskStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = NewState()
	if s.storage == nil {
		return
	}

	logger := logging.From(ctx)
	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			logger.Debug("no stored risks", StorageKeyKey, s.key)
			return
		}
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to read risks", goerr.V(StorageKeyKey, s.key)),
			"Loading stored risks failed, starting empty")
		return
	}

	risks, skipped, err := DecodeRisks(data)
	if err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "stored risks are corrupt", goerr.V(StorageKeyKey, s.key)),
			"Loading stored risks failed, starting empty")
		return
	}
	if len(skipped) > 0 {
		logger.Warn("Skipped invalid stored risks", "ids", skipped)
	}

	s.state.Risks = risks
	logger.Debug("loaded risks", "count", len(risks), StorageKeyKey, s.key)
}

// Dispatch applies cmd and persists the collection when it changed
func (s *RiskStore) Dispatch(ctx context.Context, cmd Command) Outcome {
	if cmd == nil {
		panic(goerr.Wrap(ErrUnsupportedCommand, "nil command"))
	}

	ctx, span := s.tracer().Start(ctx, "RiskStore."+cmd.commandName())
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, out := transition(s.state, cmd, s.env())
	s.state = next

	span.SetAttributes(
		attribute.Bool("riskstore.applied", out.Applied),
		attribute.Bool("riskstore.risks_changed", out.RisksChanged),
		attribute.String("riskstore.rejection", string(out.Rejection)),
		attribute.Int("riskstore.risk_count", len(next.Risks)),
	)
	logging.From(ctx).Debug("risk store command",
		"command", cmd.commandName(),
		"applied", out.Applied,
		"risks_changed", out.RisksChanged,
		"rejection", out.Rejection,
	)

	if out.RisksChanged {
		s.persist(ctx)
	}
	return out
}

// persist writes the collection, or removes the entry when the collection
// is empty. Caller holds s.mu.
func (s *RiskStore) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}

	// An empty collection is stored as no entry; Load treats both alike
	if len(s.state.Risks) == 0 {
		if err := s.storage.Delete(ctx, s.key); err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to delete risks", goerr.V(StorageKeyKey, s.key)),
				"Failed to persist risks, change kept in memory only")
		}
		return
	}

	data, err := EncodeRisks(s.state.Risks)
	if err != nil {
		_ = errutil.Handle(ctx, err, "Failed to encode risks, change kept in memory only")
		return
	}
	if err := s.storage.Put(ctx, s.key, data); err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to write risks", goerr.V(StorageKeyKey, s.key)),
			"Failed to persist risks, change kept in memory only")
	}
}

// SetDraftFields merges patch into the draft. Nothing is validated until
// Commit.
func (s *RiskStore) SetDraftFields(ctx context.Context, patch model.DraftPatch) {
	s.Dispatch(ctx, SetDraftFields{Patch: patch})
}

// Commit turns the draft into a risk. It returns false, changing nothing,
// when the description is blank. When editing, the risk with the draft ID
// is replaced with recomputed score and tier; if that risk has been
// deleted meanwhile the collection is left unchanged and false is
// returned. When creating, a risk with a fresh ID is appended. The draft
// is reset in both branches.
func (s *RiskStore) Commit(ctx context.Context) (model.Risk, bool) {
	out := s.Dispatch(ctx, Commit{})
	if out.Committed == nil {
		return model.Risk{}, false
	}
	return *out.Committed, true
}

// BeginEdit loads the risk with id into the draft and enters editing. It
// returns false and changes nothing when id is unknown.
func (s *RiskStore) BeginEdit(ctx context.Context, id model.RiskID) bool {
	return s.Dispatch(ctx, BeginEdit{ID: id}).Applied
}

// DeleteRisk removes the risk with id, returning false when it is absent.
// The draft is not touched, even if it is editing id.
func (s *RiskStore) DeleteRisk(ctx context.Context, id model.RiskID) bool {
	return s.Dispatch(ctx, DeleteRisk{ID: id}).Applied
}

// ResetForm returns the draft to creating defaults
func (s *RiskStore) ResetForm(ctx context.Context) {
	s.Dispatch(ctx, ResetForm{})
}

// CancelEdit abandons the current edit. Same as ResetForm.
func (s *RiskStore) CancelEdit(ctx context.Context) {
	s.ResetForm(ctx)
}

// ReplaceAll replaces the whole collection
func (s *RiskStore) ReplaceAll(ctx context.Context, risks []model.Risk) {
	s.Dispatch(ctx, SetRisks{Risks: risks})
}

// ClearAll removes every risk
func (s *RiskStore) ClearAll(ctx context.Context) {
	s.ReplaceAll(ctx, []model.Risk{})
}

// Risks returns a copy of the collection in insertion order
func (s *RiskStore) Risks() []model.Risk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRisks(s.state.Risks)
}

// Find returns the risk with id
func (s *RiskStore) Find(id model.RiskID) (model.Risk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.state.Risks, id)
	if idx < 0 {
		return model.Risk{}, false
	}
	return s.state.Risks[idx], true
}

// Draft returns the current draft
func (s *RiskStore) Draft() model.FormDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Draft
}

// IsEditing reports whether the draft edits an existing risk
func (s *RiskStore) IsEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsEditing
}

// State returns a copy of the whole state
func (s *RiskStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Risks = cloneRisks(st.Risks)
	return st
}

// Statistics computes tier counts from the current collection
func (s *RiskStore) Statistics() model.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ComputeStatistics(s.state.Risks)
}

// Matrix computes the probability/impact occupancy of the current collection
func (s *RiskStore) Matrix() model.Matrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.BuildMatrix(s.state.Risks)
}

// Snapshot is a consistent read of the collection and its statistics
type Snapshot struct {
	Risks      []model.Risk
	Statistics model.Statistics
}

// Snapshot returns the collection and statistics taken under one lock
func (s *RiskStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Risks:      cloneRisks(s.state.Risks),
		Statistics: model.ComputeStatistics(s.state.Risks),
	}
}

// Export renders a snapshot with formatter. The store is not locked while
// formatting.
func (s *RiskStore) Export(formatter interfaces.ReportFormatter) ([]byte, error) {
	snap := s.Snapshot()
	data, err := formatter.Format(snap.Risks, snap.Statistics)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to format report", goerr.V("count", len(snap.Risks)))
	}
	return data, nil
}
