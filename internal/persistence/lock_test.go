package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLockSerializesHolders(t *testing.T) {
	lock := NewLocalRunLock()

	release, err := lock.Acquire(context.Background(), "hired_employees")
	require.NoError(t, err)

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release2, err := lock.Acquire(context.Background(), "hired_employees")
		assert.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	default:
	}

	release()
	wg.Wait()
	<-acquired
}

func TestLocalRunLockIndependentKeys(t *testing.T) {
	lock := NewLocalRunLock()

	release1, err := lock.Acquire(context.Background(), "departments")
	require.NoError(t, err)
	defer release1()

	// A different key must not block.
	release2, err := lock.Acquire(context.Background(), "jobs")
	require.NoError(t, err)
	release2()
}
