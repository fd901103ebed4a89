package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultid/internal/apperr"
	"github.com/starford/vaultid/internal/parser"
	"github.com/starford/vaultid/internal/testutil"
)

func TestEdit_WritesAndReindexes(t *testing.T) {
	_, store := testutil.TestVault(t)
	idx := testutil.NewMemIndex()
	testutil.WriteNotes(t, store, map[string]string{"a.md": "---\ntitle: A\n---\nbody\n"})

	ed := New(store, idx, testutil.Discard())
	changed, err := ed.Edit(context.Background(), "a.md", func(fm *parser.Frontmatter) error {
		fm.Set("uuid", "u-1")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := store.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: A\nuuid: u-1\n---\nbody\n", string(data))

	fm, _ := idx.Frontmatter("a.md")
	assert.Equal(t, "u-1", fm["uuid"])
}

func TestEdit_NoChangeNoWrite(t *testing.T) {
	_, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{"a.md": "---\nuuid:   keep\n---\n"})
	flaky := testutil.NewFlakyStore(store)

	ed := New(flaky, nil, testutil.Discard())
	changed, err := ed.Edit(context.Background(), "a.md", func(fm *parser.Frontmatter) error {
		if !fm.Has("uuid") {
			fm.Set("uuid", "new")
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, flaky.Attempts("a.md"))
}

func TestEdit_MissingFile(t *testing.T) {
	_, store := testutil.TestVault(t)
	ed := New(store, nil, testutil.Discard())

	_, err := ed.Edit(context.Background(), "nope.md", func(*parser.Frontmatter) error { return nil })
	require.Error(t, err)

	var te *TransactionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "nope.md", te.Path)
	assert.ErrorIs(t, err, apperr.ErrTransaction)
}

func TestEdit_InvalidHeaderIsTransactionFailure(t *testing.T) {
	_, store := testutil.TestVault(t)
	original := "---\n: invalid: yaml: {{{\n---\nbody\n"
	testutil.WriteNotes(t, store, map[string]string{"bad.md": original})

	ed := New(store, nil, testutil.Discard())
	_, err := ed.Edit(context.Background(), "bad.md", func(fm *parser.Frontmatter) error {
		fm.Set("uuid", "x")
		return nil
	})
	assert.ErrorIs(t, err, parser.ErrInvalidFrontmatter)
	assert.ErrorIs(t, err, apperr.ErrTransaction)

	data, _ := store.Read("bad.md")
	assert.Equal(t, original, string(data))
}

func TestEdit_ConcurrentExternalWriteConflicts(t *testing.T) {
	_, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{"c.md": "---\ntitle: C\n---\n"})

	ed := New(store, nil, testutil.Discard())
	_, err := ed.Edit(context.Background(), "c.md", func(fm *parser.Frontmatter) error {
		// Another writer commits while the mutator runs.
		require.NoError(t, store.Write("c.md", []byte("---\ntitle: other\n---\n")))
		fm.Set("uuid", "x")
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	data, _ := store.Read("c.md")
	assert.Equal(t, "---\ntitle: other\n---\n", string(data))
}

func TestEdit_MutatorErrorAborts(t *testing.T) {
	_, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{"m.md": "body"})

	boom := errors.New("boom")
	ed := New(store, nil, testutil.Discard())
	_, err := ed.Edit(context.Background(), "m.md", func(fm *parser.Frontmatter) error {
		fm.Set("uuid", "x")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, _ := store.Read("m.md")
	assert.Equal(t, "body", string(data))
}

func TestEdit_SerializesSamePath(t *testing.T) {
	_, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{"race.md": "# Race\n"})
	ed := New(store, nil, testutil.Discard())

	var wg sync.WaitGroup
	var mu sync.Mutex
	writes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := ed.Edit(context.Background(), "race.md", func(fm *parser.Frontmatter) error {
				if !fm.Has("uuid") {
					fm.Set("uuid", "winner")
				}
				return nil
			})
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				writes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, writes)
	data, _ := store.Read("race.md")
	assert.Equal(t, 1, strings.Count(string(data), "uuid:"))
}

func TestEdit_CancelledContext(t *testing.T) {
	_, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{"x.md": "x"})
	ed := New(store, nil, testutil.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ed.Edit(ctx, "x.md", func(*parser.Frontmatter) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
