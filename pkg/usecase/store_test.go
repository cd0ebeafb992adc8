package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmatrix/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
	"github.com/secmon-lab/riskmatrix/pkg/repository/memory"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestStore(t *testing.T, opts ...usecase.Option) (*usecase.RiskStore, *memory.Memory) {
	t.Helper()
	storage := memory.New()
	clock := newFakeClock()
	opts = append([]usecase.Option{
		usecase.WithClock(clock.Now),
		usecase.WithIDGenerator(sequentialIDs()),
	}, opts...)
	return usecase.NewRiskStore(storage, opts...), storage
}

func addRisk(t *testing.T, store *usecase.RiskStore, desc string, p, i int) model.Risk {
	t.Helper()
	ctx := context.Background()
	store.SetDraftFields(ctx, model.DraftPatch{Description: &desc, Probability: &p, Impact: &i})
	risk, ok := store.Commit(ctx)
	gt.Bool(t, ok).True()
	return risk
}

func TestRiskStore_CommitCreatesRisk(t *testing.T) {
	store, _ := newTestStore(t)

	risk := addRisk(t, store, "Server outage", 4, 5)

	gt.Value(t, risk.RiskScore).Equal(20)
	gt.Value(t, risk.RiskLevel).Equal(types.RiskLevelHigh)
	gt.Value(t, risk.Probability).Equal(types.ProbabilityOf(4))
	gt.Value(t, risk.Impact).Equal(types.ImpactOf(5))
	gt.Value(t, risk.CreatedAt.IsZero()).Equal(false)

	risks := store.Risks()
	gt.Array(t, risks).Length(1)
	gt.Value(t, risks[0]).Equal(risk)

	// draft is back to creating defaults
	gt.Value(t, store.Draft()).Equal(model.NewFormDraft())
	gt.Bool(t, store.IsEditing()).False()
}

func TestRiskStore_CommitAssignsUniqueIDs(t *testing.T) {
	store, _ := newTestStore(t)

	first := addRisk(t, store, "first", 1, 1)
	second := addRisk(t, store, "second", 2, 2)

	gt.Value(t, first.ID).NotEqual(second.ID)
	gt.Array(t, store.Risks()).Length(2)
}

func TestRiskStore_CommitSkipsCollidingIDs(t *testing.T) {
	ids := []model.RiskID{"dup", "dup", "fresh"}
	n := 0
	store := usecase.NewRiskStore(memory.New(), usecase.WithIDGenerator(func() model.RiskID {
		id := ids[n%len(ids)]
		n++
		return id
	}))

	first := addRisk(t, store, "first", 1, 1)
	second := addRisk(t, store, "second", 1, 1)

	gt.Value(t, first.ID).Equal(model.RiskID("dup"))
	gt.Value(t, second.ID).Equal(model.RiskID("fresh"))
}

func TestRiskStore_CommitRejectsBlankDescription(t *testing.T) {
	for _, desc := range []string{"", "   ", "\t\n"} {
		t.Run(desc, func(t *testing.T) {
			store, storage := newTestStore(t)
			ctx := context.Background()
			existing := addRisk(t, store, "existing", 2, 2)

			p, i := 3, 4
			store.SetDraftFields(ctx, model.DraftPatch{Description: &desc, Probability: &p, Impact: &i})
			before := store.State()

			_, ok := store.Commit(ctx)
			gt.Bool(t, ok).False()
			gt.Value(t, store.State()).Equal(before)
			gt.Value(t, store.Risks()).Equal([]model.Risk{existing})

			stored, err := storage.Get(ctx, usecase.DefaultStorageKey)
			gt.NoError(t, err).Required()
			decoded, _, err := usecase.DecodeRisks(stored)
			gt.NoError(t, err).Required()
			gt.Array(t, decoded).Length(1)
		})
	}
}

func TestRiskStore_EditReplacesRisk(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := addRisk(t, store, "first", 1, 1)
	target := addRisk(t, store, "target", 1, 2)
	last := addRisk(t, store, "last", 5, 5)

	gt.Bool(t, store.BeginEdit(ctx, target.ID)).True()
	gt.Bool(t, store.IsEditing()).True()
	gt.Value(t, store.Draft()).Equal(model.DraftFromRisk(target))

	store.SetDraftFields(ctx, model.DraftPatch{
		Description: ptr("target updated"),
		Probability: ptr(3),
		Impact:      ptr(5),
	})
	updated, ok := store.Commit(ctx)
	gt.Bool(t, ok).True()

	gt.Value(t, updated.ID).Equal(target.ID)
	gt.Value(t, updated.Description).Equal("target updated")
	gt.Value(t, updated.RiskScore).Equal(15)
	gt.Value(t, updated.RiskLevel).Equal(types.RiskLevelHigh)

	risks := store.Risks()
	gt.Array(t, risks).Length(3)
	gt.Value(t, risks[0]).Equal(first)
	gt.Value(t, risks[1]).Equal(updated)
	gt.Value(t, risks[2]).Equal(last)

	gt.Bool(t, store.IsEditing()).False()
	gt.Value(t, store.Draft()).Equal(model.NewFormDraft())
}

func TestRiskStore_EditRestampsCreatedAt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	original := addRisk(t, store, "risk", 1, 1)
	gt.Bool(t, store.BeginEdit(ctx, original.ID)).True()
	updated, ok := store.Commit(ctx)
	gt.Bool(t, ok).True()

	gt.Bool(t, updated.CreatedAt.After(original.CreatedAt)).True()
}

func TestRiskStore_EditPreservesCreatedAtWhenEnabled(t *testing.T) {
	store, _ := newTestStore(t, usecase.WithPreserveCreatedAt(true))
	ctx := context.Background()

	original := addRisk(t, store, "risk", 1, 1)
	gt.Bool(t, store.BeginEdit(ctx, original.ID)).True()
	updated, ok := store.Commit(ctx)
	gt.Bool(t, ok).True()

	gt.Value(t, updated.CreatedAt).Equal(original.CreatedAt)
}

func TestRiskStore_BeginEditUnknownID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	addRisk(t, store, "existing", 2, 2)
	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("in progress")})
	before := store.State()

	gt.Bool(t, store.BeginEdit(ctx, "missing")).False()
	gt.Value(t, store.State()).Equal(before)
	gt.Bool(t, store.IsEditing()).False()
}

func TestRiskStore_DeleteRisk(t *testing.T) {
	t.Run("existing id", func(t *testing.T) {
		store, _ := newTestStore(t)
		ctx := context.Background()

		a := addRisk(t, store, "a", 1, 1)
		b := addRisk(t, store, "b", 2, 2)
		c := addRisk(t, store, "c", 3, 3)

		gt.Bool(t, store.DeleteRisk(ctx, b.ID)).True()

		risks := store.Risks()
		gt.Array(t, risks).Length(2)
		gt.Value(t, risks).Equal([]model.Risk{a, c})
		_, found := store.Find(b.ID)
		gt.Bool(t, found).False()
	})

	t.Run("unknown id", func(t *testing.T) {
		store, _ := newTestStore(t)
		ctx := context.Background()

		a := addRisk(t, store, "a", 1, 1)

		gt.Bool(t, store.DeleteRisk(ctx, "missing")).False()
		gt.Value(t, store.Risks()).Equal([]model.Risk{a})
	})

	t.Run("unrelated edit survives", func(t *testing.T) {
		store, _ := newTestStore(t)
		ctx := context.Background()

		a := addRisk(t, store, "a", 1, 1)
		b := addRisk(t, store, "b", 2, 2)

		gt.Bool(t, store.BeginEdit(ctx, a.ID)).True()
		draft := store.Draft()

		gt.Bool(t, store.DeleteRisk(ctx, b.ID)).True()
		gt.Value(t, store.Draft()).Equal(draft)
		gt.Bool(t, store.IsEditing()).True()
	})

	t.Run("deleting the edited risk leaves a stale draft", func(t *testing.T) {
		store, _ := newTestStore(t)
		ctx := context.Background()

		a := addRisk(t, store, "a", 1, 1)
		b := addRisk(t, store, "b", 2, 2)

		gt.Bool(t, store.BeginEdit(ctx, a.ID)).True()
		draft := store.Draft()

		gt.Bool(t, store.DeleteRisk(ctx, a.ID)).True()
		gt.Value(t, store.Draft()).Equal(draft)
		gt.Bool(t, store.IsEditing()).True()

		// Committing the stale edit neither resurrects nor appends
		_, ok := store.Commit(ctx)
		gt.Bool(t, ok).False()
		gt.Value(t, store.Risks()).Equal([]model.Risk{b})
		gt.Bool(t, store.IsEditing()).False()
		gt.Value(t, store.Draft()).Equal(model.NewFormDraft())
	})
}

func TestRiskStore_ResetAndCancel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a := addRisk(t, store, "a", 4, 4)

	gt.Bool(t, store.BeginEdit(ctx, a.ID)).True()
	store.CancelEdit(ctx)
	gt.Bool(t, store.IsEditing()).False()
	gt.Value(t, store.Draft()).Equal(model.NewFormDraft())

	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("draft"), Impact: ptr(5)})
	store.ResetForm(ctx)
	gt.Value(t, store.Draft()).Equal(model.NewFormDraft())

	// Collection is untouched by form resets
	gt.Value(t, store.Risks()).Equal([]model.Risk{a})
}

func TestRiskStore_SetDraftFieldsDoesNotValidate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("  "), Probability: ptr(99)})

	draft := store.Draft()
	gt.Value(t, draft.Description).Equal("  ")
	gt.Value(t, draft.Probability).Equal(types.DefaultProbability())
	gt.Array(t, store.Risks()).Length(0)
}

func TestRiskStore_CommitObservesLatestDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("first"), Probability: ptr(2)})
	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("second"), Impact: ptr(4)})

	risk, ok := store.Commit(ctx)
	gt.Bool(t, ok).True()
	gt.Value(t, risk.Description).Equal("second")
	gt.Value(t, risk.RiskScore).Equal(8)
	gt.Value(t, risk.RiskLevel).Equal(types.RiskLevelMedium)
}

func TestRiskStore_ReplaceAllAndClear(t *testing.T) {
	store, storage := newTestStore(t)
	ctx := context.Background()

	addRisk(t, store, "a", 1, 1)
	addRisk(t, store, "b", 5, 5)

	store.ClearAll(ctx)
	gt.Array(t, store.Risks()).Length(0)

	// Clearing removes the stored entry
	_, err := storage.Get(ctx, usecase.DefaultStorageKey)
	gt.Error(t, err).Is(interfaces.ErrKeyNotFound)

	reloaded := usecase.NewRiskStore(storage)
	reloaded.Load(ctx)
	gt.Array(t, reloaded.Risks()).Length(0)

	other, _ := newTestStore(t)
	imported := addRisk(t, other, "imported", 3, 3)
	store.ReplaceAll(ctx, other.Risks())
	gt.Value(t, store.Risks()).Equal([]model.Risk{imported})
}

func TestRiskStore_ReplaceAllCopiesInput(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	other, _ := newTestStore(t)
	addRisk(t, other, "a", 1, 1)
	input := other.Risks()

	store.ReplaceAll(ctx, input)
	input[0].Description = "mutated"

	gt.Value(t, store.Risks()[0].Description).Equal("a")
}

func TestRiskStore_Statistics(t *testing.T) {
	store, _ := newTestStore(t)

	gt.Value(t, store.Statistics()).Equal(model.Statistics{})

	addRisk(t, store, "low 1", 1, 1)
	addRisk(t, store, "low 2", 2, 3)
	addRisk(t, store, "medium", 3, 3)
	addRisk(t, store, "high", 4, 5)

	gt.Value(t, store.Statistics()).Equal(model.Statistics{
		Total:            4,
		Low:              2,
		Medium:           1,
		High:             1,
		LowPercentage:    50,
		MediumPercentage: 25,
		HighPercentage:   25,
	})

	// Computed fresh after every change
	store.ClearAll(context.Background())
	gt.Value(t, store.Statistics()).Equal(model.Statistics{})
}

func TestRiskStore_Matrix(t *testing.T) {
	store, _ := newTestStore(t)

	addRisk(t, store, "a", 4, 5)
	addRisk(t, store, "b", 4, 5)
	addRisk(t, store, "c", 1, 3)

	m := store.Matrix()
	gt.Value(t, m[3][4]).Equal(2)
	gt.Value(t, m[0][2]).Equal(1)
}

func TestRiskStore_PersistAndReload(t *testing.T) {
	storage := memory.New()
	ctx := context.Background()

	store := usecase.NewRiskStore(storage)
	addRisk(t, store, "Server outage", 4, 5)
	addRisk(t, store, "Phishing", 3, 2)
	addRisk(t, store, "Vendor lock-in", 2, 4)
	gt.Bool(t, store.DeleteRisk(ctx, store.Risks()[1].ID)).True()

	reloaded := usecase.NewRiskStore(storage)
	reloaded.Load(ctx)

	gt.Value(t, reloaded.Risks()).Equal(store.Risks())
}

func TestRiskStore_CustomStorageKey(t *testing.T) {
	storage := memory.New()
	ctx := context.Background()

	store := usecase.NewRiskStore(storage, usecase.WithStorageKey("team-a"))
	gt.Value(t, store.Key()).Equal("team-a")
	addRisk(t, store, "a", 1, 1)

	_, err := storage.Get(ctx, "team-a")
	gt.NoError(t, err)

	other := usecase.NewRiskStore(storage)
	other.Load(ctx)
	gt.Array(t, other.Risks()).Length(0)
}

func TestRiskStore_LoadIsBestEffort(t *testing.T) {
	ctx := context.Background()

	t.Run("missing entry", func(t *testing.T) {
		store := usecase.NewRiskStore(memory.New())
		store.Load(ctx)
		gt.Array(t, store.Risks()).Length(0)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		storage := memory.New()
		gt.NoError(t, storage.Put(ctx, usecase.DefaultStorageKey, []byte("{not json"))).Required()

		store := usecase.NewRiskStore(storage)
		store.Load(ctx)
		gt.Array(t, store.Risks()).Length(0)
	})

	t.Run("unavailable storage", func(t *testing.T) {
		store := usecase.NewRiskStore(&failingStorage{})
		store.Load(ctx)
		gt.Array(t, store.Risks()).Length(0)
	})

	t.Run("nil storage", func(t *testing.T) {
		store := usecase.NewRiskStore(nil)
		store.Load(ctx)
		addRisk(t, store, "in memory only", 2, 2)
		gt.Array(t, store.Risks()).Length(1)
	})
}

func TestRiskStore_PersistenceFailureDoesNotBlockMutation(t *testing.T) {
	storage := &failingStorage{}
	store := usecase.NewRiskStore(storage)
	ctx := context.Background()

	risk := addRisk(t, store, "still recorded", 3, 5)
	gt.Array(t, store.Risks()).Length(1)
	gt.Bool(t, store.DeleteRisk(ctx, risk.ID)).True()
	gt.Array(t, store.Risks()).Length(0)

	gt.Value(t, storage.puts).Equal(1)
	gt.Value(t, storage.deletes).Equal(1)
}

func TestRiskStore_FormChangesAreNotPersisted(t *testing.T) {
	storage := &failingStorage{}
	store := usecase.NewRiskStore(storage)
	ctx := context.Background()

	store.SetDraftFields(ctx, model.DraftPatch{Description: ptr("x")})
	store.ResetForm(ctx)
	store.BeginEdit(ctx, "missing")

	gt.Value(t, storage.puts).Equal(0)
	gt.Value(t, storage.deletes).Equal(0)
}

func TestRiskStore_Export(t *testing.T) {
	store, _ := newTestStore(t)
	addRisk(t, store, "a", 1, 1)
	addRisk(t, store, "b", 5, 5)

	var got usecase.Snapshot
	data, err := store.Export(formatterFunc(func(risks []model.Risk, stats model.Statistics) ([]byte, error) {
		got = usecase.Snapshot{Risks: risks, Statistics: stats}
		return []byte("report"), nil
	}))
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("report")
	gt.Value(t, got).Equal(store.Snapshot())
	gt.Value(t, got.Statistics.Total).Equal(2)
}

type formatterFunc func(risks []model.Risk, stats model.Statistics) ([]byte, error)

func (f formatterFunc) Format(risks []model.Risk, stats model.Statistics) ([]byte, error) {
	return f(risks, stats)
}

func TestRiskStore_DeletingLastRiskRemovesEntry(t *testing.T) {
	store, storage := newTestStore(t)
	ctx := context.Background()

	risk := addRisk(t, store, "only", 2, 2)
	_, err := storage.Get(ctx, usecase.DefaultStorageKey)
	gt.NoError(t, err).Required()

	gt.Bool(t, store.DeleteRisk(ctx, risk.ID)).True()
	_, err = storage.Get(ctx, usecase.DefaultStorageKey)
	gt.Error(t, err).Is(interfaces.ErrKeyNotFound)
}

func TestRiskStore_LoadKeepsValidRecordsNextToBadOnes(t *testing.T) {
	storage := memory.New()
	ctx := context.Background()
	stored := `[
		{"id":"a","description":"valid","probability":{"value":2},"impact":{"value":3},"createdAt":"2025-03-01T10:20:30.000Z"},
		{"id":"b","description":"no timestamp","probability":{"value":1},"impact":{"value":1},"createdAt":""}
	]`
	gt.NoError(t, storage.Put(ctx, usecase.DefaultStorageKey, []byte(stored))).Required()

	store := usecase.NewRiskStore(storage, usecase.WithIDGenerator(sequentialIDs()))
	store.Load(ctx)
	gt.Array(t, store.Risks()).Length(1)

	addRisk(t, store, "new", 1, 1)

	reloaded := usecase.NewRiskStore(storage)
	reloaded.Load(ctx)
	risks := reloaded.Risks()
	gt.Array(t, risks).Length(2)
	gt.Value(t, risks[0].ID).Equal(model.RiskID("a"))
	gt.Value(t, risks[1].Description).Equal("new")
}

func TestRiskStore_DispatchReportsRejection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	out := store.Dispatch(ctx, usecase.Commit{})
	gt.Value(t, out.Rejection).Equal(usecase.RejectionBlankDescription)
	gt.Bool(t, out.WasEditing).False()

	risk := addRisk(t, store, "edited then deleted", 3, 3)
	gt.Bool(t, store.BeginEdit(ctx, risk.ID)).True()
	gt.Bool(t, store.DeleteRisk(ctx, risk.ID)).True()

	out = store.Dispatch(ctx, usecase.Commit{})
	gt.Value(t, out.Rejection).Equal(usecase.RejectionRiskNotFound)
	gt.Bool(t, out.WasEditing).True()
	gt.Value(t, out.Committed).Nil()
	gt.Bool(t, store.IsEditing()).False()
}

func TestRiskStore_DispatchOpensSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	store, _ := newTestStore(t, usecase.WithTracerProvider(tp))

	addRisk(t, store, "traced", 4, 4)

	spans := recorder.Ended()
	gt.Array(t, spans).Length(2)
	gt.Value(t, spans[0].Name()).Equal("RiskStore.set_draft_fields")
	gt.Value(t, spans[1].Name()).Equal("RiskStore.commit")

	var changed bool
	for _, attr := range spans[1].Attributes() {
		if attr.Key == "riskstore.risks_changed" {
			changed = attr.Value.AsBool()
		}
	}
	gt.Bool(t, changed).True()
}
