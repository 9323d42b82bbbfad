package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/ruleforge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal in-package test double. The ai/mock package can't
// be used here because it imports this one.
type fakeProvider struct {
	name       string
	summary    string
	rules      []core.Rule
	err        error
	calls      int
	closeCalls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Summarizer() Summarizer { return p }

func (p *fakeProvider) RuleExtractor() RuleExtractor { return p }

func (p *fakeProvider) Close() error {
	p.closeCalls++
	return nil
}

func (p *fakeProvider) Summarize(ctx context.Context, text string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.summary, nil
}

func (p *fakeProvider) ExtractRules(ctx context.Context, text string) ([]core.Rule, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.rules, nil
}

func TestNewRegistryRequiresProviders(t *testing.T) {
	_, err := NewRegistry()
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestRegistryUsesHighestPriorityProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", summary: "primary summary"}
	secondary := &fakeProvider{name: "secondary", summary: "secondary summary"}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	result, err := registry.Summarize(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, "primary summary", result.Text)
	assert.Equal(t, 0, secondary.calls)
}

func TestRegistryFallsBackOnPermanentFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: core.Permanent(errors.New("model not found"))}
	secondary := &fakeProvider{name: "secondary", rules: []core.Rule{
		{Text: "approval requires two signatures", Category: "approval", Confidence: 0.8},
	}}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	result, err := registry.ExtractRules(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.Provider)
	assert.Len(t, result.Rules, 1)
}

func TestRegistryDoesNotFallBackOnTransientFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: core.Transient(errors.New("rate limited"))}
	secondary := &fakeProvider{name: "secondary", summary: "should not be reached"}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	_, err = registry.Summarize(context.Background(), "some text")
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))
	assert.Equal(t, 0, secondary.calls)
}

func TestRegistryUnclassifiedFailureStopsFallback(t *testing.T) {
	// An unclassified error is treated as transient: no fallback
	primary := &fakeProvider{name: "primary", err: errors.New("connection reset")}
	secondary := &fakeProvider{name: "secondary", summary: "should not be reached"}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	_, err = registry.Summarize(context.Background(), "some text")
	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls)
}

func TestRegistryAllProvidersPermanentlyFailed(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: core.Permanent(errors.New("bad request"))}
	secondary := &fakeProvider{name: "secondary", err: core.Permanent(errors.New("unsupported"))}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	_, err = registry.Summarize(context.Background(), "some text")
	require.Error(t, err)
	assert.True(t, core.IsPermanent(err))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestRegistryClose(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	secondary := &fakeProvider{name: "secondary"}

	registry, err := NewRegistry(primary, secondary)
	require.NoError(t, err)

	require.NoError(t, registry.Close())
	assert.Equal(t, 1, primary.closeCalls)
	assert.Equal(t, 1, secondary.closeCalls)
}
