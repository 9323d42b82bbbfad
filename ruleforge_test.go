package ruleforge

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ruleforge/ai/mock"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/pipeline"
	"github.com/poiesic/ruleforge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService("",
		WithProviders(mock.NewProvider()),
		WithPipelineOptions(pipeline.WithBackoff(time.Millisecond, 5*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

const agreementText = `Master Services Agreement. Invoices are payable within
30 days of receipt. Either party may terminate with 60 days written notice.`

func TestServiceEndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain; charset=utf-8",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)
	assert.Equal(t, core.DocumentTypeContract, doc.Type)
	assert.Equal(t, "text/plain", doc.MediaType)

	final, err := svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	summary, err := svc.Summary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "mock", summary.Provider)

	rules, err := svc.Rules(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, rules.Rules, 3)

	runs, err := svc.Runs(ctx, doc.Id, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	docs, err := svc.Documents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestServiceUploadValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("empty filename", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadRequest{MediaType: "text/plain", Data: []byte("x")})
		assert.ErrorIs(t, err, core.ErrEmptyFilename)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadRequest{Filename: "a.txt", MediaType: "text/plain"})
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("oversized data", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadRequest{
			Filename:  "big.txt",
			MediaType: "text/plain",
			Data:      []byte(strings.Repeat("a", MaxUploadBytes+1)),
		})
		assert.ErrorIs(t, err, ErrDocumentTooLarge)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadRequest{
			Filename:  "scan.png",
			MediaType: "image/png",
			Data:      []byte{0x89},
		})
		assert.ErrorIs(t, err, core.ErrUnsupportedMediaType)
	})
}

func TestServiceUploadDeduplication(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)

	// Same bytes under a different name resolve to the same document
	dup, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa-copy.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	require.NotNil(t, dup)
	assert.Equal(t, first.Id, dup.Id)
}

func TestServiceResubmit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)

	// Settle processing first so cancel/resubmit act on a quiet document
	_, err = svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, resubmitted.Sequence)

	final, err := svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	history, err := svc.SummaryHistory(ctx, doc.Id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestServiceProviderFallback(t *testing.T) {
	broken := mock.NewNamedProvider("broken",
		mock.NewSummarizer().WithSummarizeFunc(func(ctx context.Context, text string) (string, error) {
			return "", core.Permanent(assert.AnError)
		}),
		mock.NewRuleExtractor())
	working := mock.NewNamedProvider("working", mock.NewSummarizer(), mock.NewRuleExtractor())

	svc, err := NewService("",
		WithProviders(broken, working),
		WithPipelineOptions(pipeline.WithBackoff(time.Millisecond, 5*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	ctx := context.Background()
	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)

	final, err := svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, final.Status)

	summary, err := svc.Summary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "working", summary.Provider)
}

func TestServiceSubmitIdempotence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)

	// Upload already queued the document; a second submission must join
	// that run instead of starting another sequence
	_, _, err = svc.Submit(ctx, doc.Id)
	require.NoError(t, err)

	final, err := svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	require.Equal(t, core.StatusCompleted, final.Status)

	runs, err := svc.Runs(ctx, doc.Id, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	for _, run := range runs {
		assert.Equal(t, 1, run.Sequence)
		assert.Equal(t, core.OutcomeSuccess, run.Outcome)
	}

	outcome, submitted, err := svc.Submit(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SubmitAlreadyCompleted, outcome)
	assert.Equal(t, core.StatusCompleted, submitted.Status)

	// The completed document was not re-queued
	runs, err = svc.Runs(ctx, doc.Id, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	_, _, err = svc.Submit(ctx, doc.Id+1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServiceArtifactReadiness(t *testing.T) {
	provider := mock.NewProvider()
	release := make(chan struct{})
	var once sync.Once
	releaseOnce := func() { once.Do(func() { close(release) }) }
	provider.MockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		<-release
		return "a short summary", nil
	}

	svc, err := NewService("",
		WithProviders(provider),
		WithPipelineOptions(pipeline.WithBackoff(time.Millisecond, 5*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	t.Cleanup(releaseOnce)

	ctx := context.Background()
	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:  "msa.txt",
		MediaType: "text/plain",
		Data:      []byte(agreementText),
	})
	require.NoError(t, err)

	// Known document, artifacts not promoted yet
	_, err = svc.Summary(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotReady)
	_, err = svc.Rules(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotReady)

	// Unknown document stays a plain miss
	_, err = svc.Summary(ctx, doc.Id+1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NotErrorIs(t, err, storage.ErrNotReady)

	releaseOnce()
	final, err := svc.ProcessDocument(ctx, doc.Id)
	require.NoError(t, err)
	require.Equal(t, core.StatusCompleted, final.Status)

	summary, err := svc.Summary(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary.Text)
}
