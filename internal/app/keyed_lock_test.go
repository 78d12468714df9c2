package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/index"
)

func TestKeyedLockReleasesEntries(t *testing.T) {
	locks := newKeyedLock()

	unlock := locks.Lock("1:doc-a")
	assert.Equal(t, 1, locks.len())
	unlock()
	assert.Equal(t, 0, locks.len(), "released keys must not accumulate")
}

func TestKeyedLockMutualExclusion(t *testing.T) {
	locks := newKeyedLock()

	var mu sync.Mutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("1:doc-a")
			defer unlock()
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.len())
}

func TestKeyedLockIndependentKeys(t *testing.T) {
	locks := newKeyedLock()

	unlockA := locks.Lock("1:doc-a")
	defer unlockA()

	// A different key must not block behind doc-a's holder.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("2:doc-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent key blocked behind an unrelated holder")
	}
}

func TestDocumentLocksDoNotAccumulate(t *testing.T) {
	docs := newFakeDocumentStore()
	svc := newTestRetrievalService(docs, index.NewMemoryIndex())
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, 1, "report.txt", []byte("sales figures"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteDocument(ctx, 1, doc.ID))

	assert.Equal(t, 0, svc.docLocks.len(), "ingest and delete must release their lock entries")
}
