package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/ruleforge/ai"
	"github.com/poiesic/ruleforge/ai/mock"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/extract"
	"github.com/poiesic/ruleforge/storage"
	"github.com/poiesic/ruleforge/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv wires an in-memory store, the built-in extractors, and mock
// providers into an orchestrator.
type testEnv struct {
	store    storage.PipelineStore
	blobs    *badger.BlobStore
	provider *mock.Provider
	orch     *Orchestrator
}

func newTestEnv(t *testing.T, providers []ai.Provider, opts ...Option) *testEnv {
	t.Helper()

	store, blobs, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(); backend.Close() })

	var mockProvider *mock.Provider
	if len(providers) == 0 {
		mockProvider = mock.NewProvider()
		providers = []ai.Provider{mockProvider}
	}
	registry, err := ai.NewRegistry(providers...)
	require.NoError(t, err)

	defaultOpts := []Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}
	orch, err := NewOrchestrator(store, blobs, extract.NewDefaultRegistry(), registry,
		append(defaultOpts, opts...)...)
	require.NoError(t, err)

	return &testEnv{store: store, blobs: blobs, provider: mockProvider, orch: orch}
}

// uploadDocument stores raw bytes and creates the document record, the way
// the upload surface does.
func (env *testEnv) uploadDocument(t *testing.T, filename, mediaType string, raw []byte) *core.Document {
	t.Helper()
	ctx := context.Background()

	rawKey, err := env.blobs.Put(ctx, raw)
	require.NoError(t, err)

	doc, err := env.store.CreateDocument(ctx, &core.Document{
		Filename:    filename,
		MediaType:   mediaType,
		Type:        core.DocumentTypeContract,
		ByteSize:    int64(len(raw)),
		ContentHash: core.ContentHash(raw),
		RawKey:      rawKey,
		Status:      core.StatusPending,
	})
	require.NoError(t, err)
	return doc
}

const contractText = `Master Services Agreement between Acme Corp and Beta LLC.
Invoices are payable within 30 days of receipt. Late payments accrue interest
at 1.5 percent per month. Either party may terminate with 60 days notice.`

func TestProcessDocumentHappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)
	assert.NotEmpty(t, final.TextKey)

	// The extracted text round-trips through the blob store
	text, err := env.blobs.Get(ctx, final.TextKey)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Invoices are payable")

	summary, err := env.store.GetCurrentSummary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "mock", summary.Provider)
	assert.NotEmpty(t, summary.Text)

	rules, err := env.store.GetCurrentRuleSet(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, rules.Rules, 3)
	for _, rule := range rules.Rules {
		assert.NotEmpty(t, rule.Text)
		assert.Contains(t, core.RuleCategories, rule.Category)
	}

	// One successful run per stage in the ledger
	runs, err := env.store.ListRuns(ctx, doc.Id, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for _, run := range runs {
		assert.Equal(t, core.OutcomeSuccess, run.Outcome)
	}
}

func TestTransientFailuresAreRetried(t *testing.T) {
	provider := mock.NewProvider()
	failures := 0
	provider.MockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		if failures < 2 {
			failures++
			return "", core.Transient(errors.New("model overloaded"))
		}
		return "a stable summary", nil
	}

	env := newTestEnv(t, []ai.Provider{provider})
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	runs, err := env.store.ListRuns(ctx, doc.Id, core.StageSummarize)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, core.OutcomeTransientFailure, runs[0].Outcome)
	assert.Equal(t, core.OutcomeTransientFailure, runs[1].Outcome)
	assert.Equal(t, core.OutcomeSuccess, runs[2].Outcome)
}

func TestPermanentFailureTerminatesEarly(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// No extractor is registered for PNG, which is a permanent input error
	doc := env.uploadDocument(t, "scan.png", "image/png", []byte{0x89, 'P', 'N', 'G'})

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, final.Status)
	assert.Contains(t, final.LastError, "unsupported media type")

	// Failure at extract means no later-stage runs exist
	runs, err := env.store.ListRuns(ctx, doc.Id, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.StageExtract, runs[0].Stage)
	assert.Equal(t, core.OutcomePermanentFailure, runs[0].Outcome)
}

func TestAttemptBudgetEscalatesToPermanent(t *testing.T) {
	provider := mock.NewProvider()
	provider.MockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", core.Transient(errors.New("still overloaded"))
	}

	env := newTestEnv(t, []ai.Provider{provider}, WithMaxAttempts(2))
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, final.Status)

	// The ledger shows exactly the budgeted attempts, the last one permanent
	runs, err := env.store.ListRuns(ctx, doc.Id, core.StageSummarize)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, core.OutcomeTransientFailure, runs[0].Outcome)
	assert.Equal(t, core.OutcomePermanentFailure, runs[1].Outcome)

	// Extract still succeeded; only the failing stage consumed attempts
	extractRuns, err := env.store.ListRuns(ctx, doc.Id, core.StageExtract)
	require.NoError(t, err)
	require.Len(t, extractRuns, 1)
	assert.Equal(t, core.OutcomeSuccess, extractRuns[0].Outcome)
}

func TestProviderFallbackOnPermanentFailure(t *testing.T) {
	broken := mock.NewNamedProvider("broken",
		mock.NewSummarizer().WithSummarizeFunc(func(ctx context.Context, text string) (string, error) {
			return "", core.Permanent(errors.New("model not found"))
		}),
		mock.NewRuleExtractor().WithExtractRulesFunc(func(ctx context.Context, text string) ([]core.Rule, error) {
			return nil, core.Permanent(errors.New("model not found"))
		}))
	working := mock.NewNamedProvider("working", mock.NewSummarizer(), mock.NewRuleExtractor())

	env := newTestEnv(t, []ai.Provider{broken, working})
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	summary, err := env.store.GetCurrentSummary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "working", summary.Provider)

	rules, err := env.store.GetCurrentRuleSet(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "working", rules.Provider)
}

func TestAdvanceOnTerminalDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))
	_, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)

	result, err := env.orch.Advance(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, AdvanceTerminal, result.Outcome)
	assert.Equal(t, core.StatusCompleted, result.Document.Status)
}

func TestCancelStopsProcessing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	cancelled, err := env.orch.Cancel(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, cancelled.Status)

	result, err := env.orch.Advance(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, AdvanceTerminal, result.Outcome)

	// No stage ever ran
	runs, err := env.store.ListRuns(ctx, doc.Id, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestResubmitReprocessesFromExtract(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))
	_, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)

	resubmitted, err := env.orch.Resubmit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, resubmitted.Status)
	assert.Equal(t, 2, resubmitted.Sequence)

	final, err := env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	summary, err := env.store.GetCurrentSummary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sequence)

	history, err := env.store.ListRuleSetHistory(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSubmitClassification(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))

	outcome, got, err := env.orch.Submit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, outcome)
	assert.Equal(t, doc.Id, got.Id)

	// One committed stage puts the document mid-pipeline
	result, err := env.orch.Advance(ctx, doc.Id)
	require.NoError(t, err)
	require.Equal(t, AdvanceProgressed, result.Outcome)

	outcome, _, err = env.orch.Submit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, SubmitAlreadyProcessing, outcome)

	_, err = env.orch.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)

	outcome, final, err := env.orch.Submit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, SubmitAlreadyCompleted, outcome)
	assert.Equal(t, core.StatusCompleted, final.Status)

	_, _, err = env.orch.Submit(ctx, doc.Id+1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSubmitOnCancelledDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	doc := env.uploadDocument(t, "msa.txt", "text/plain", []byte(contractText))
	_, err := env.orch.Cancel(ctx, doc.Id)
	require.NoError(t, err)

	outcome, _, err := env.orch.Submit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, SubmitAlreadyCompleted, outcome)
}
