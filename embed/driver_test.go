package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/orcarun/orca"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeEmbedder returns a deterministic one-element vector derived from the
// text's length, optionally failing the first N calls for a given text.
type fakeEmbedder struct {
	mu         sync.Mutex
	failBefore map[string]int
	calls      map[string]int
	failAlways map[string]bool
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		failBefore: map[string]int{},
		calls:      map[string]int{},
		failAlways: map[string]bool{},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (orca.Embedding, error) {
	f.mu.Lock()
	f.calls[text]++
	n := f.calls[text]
	fail := f.failAlways[text] || n <= f.failBefore[text]
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("transient failure for %q (attempt %d)", text, n)
	}
	return orca.Embedding{float32(len(text))}, nil
}

func TestDriver_EmbedAll_PreservesOrder(t *testing.T) {
	t.Parallel()
	embedder := newFakeEmbedder()
	d := New(embedder, 4)
	texts := []string{"a", "bb", "ccc", "dddd", "e"}
	results, err := d.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))
	for i, text := range texts {
		assert.Equal(t, orca.Embedding{float32(len(text))}, results[i])
	}
}

func TestDriver_EmbedAll_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	embedder := newFakeEmbedder()
	embedder.failBefore["flaky"] = 2 // fails twice, succeeds on 3rd attempt
	d := New(embedder, 1)

	results, err := d.EmbedAll(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	assert.Equal(t, orca.Embedding{float32(len("flaky"))}, results[0])
	assert.Equal(t, 3, embedder.calls["flaky"])
}

func TestDriver_EmbedAll_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	embedder := newFakeEmbedder()
	embedder.failAlways["dead"] = true
	d := New(embedder, 1)

	_, err := d.EmbedAll(context.Background(), []string{"ok", "dead"})
	require.Error(t, err)
	var batchErr *orca.EmbeddingBatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Index)
	assert.Equal(t, maxAttempts, embedder.calls["dead"])
}

func TestDriver_EmbedAll_DefaultsToConcurrencyOne(t *testing.T) {
	t.Parallel()
	embedder := newFakeEmbedder()
	d := New(embedder, 0)
	results, err := d.EmbedAll(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestDriver_EmbedAll_EmptyInput(t *testing.T) {
	t.Parallel()
	d := New(newFakeEmbedder(), 2)
	results, err := d.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDriver_EmbedAll_SiblingSuccessDoesNotMaskFailure(t *testing.T) {
	t.Parallel()
	embedder := newFakeEmbedder()
	embedder.failAlways["a"] = true
	embedder.failAlways["b"] = false // succeeds on its first call; a's failure still fails the batch
	d := New(embedder, 2)

	_, err := d.EmbedAll(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	var batchErr *orca.EmbeddingBatchError
	require.True(t, errors.As(err, &batchErr))
}
