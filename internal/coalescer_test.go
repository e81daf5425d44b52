package internal

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// slowStorage answers Get after a delay and counts how many times it
// was actually invoked, so tests can assert the Coalescer deduplicates
// concurrent loads into a single backend fetch.
type slowStorage struct {
	calls atomic.Int32
	delay time.Duration
	rec   *StoredRecord
	err   error
}

func (s *slowStorage) Get(name string, cb func(err error, rec *StoredRecord)) {
	s.calls.Add(1)
	go func() {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		cb(s.err, s.rec)
	}()
}
func (s *slowStorage) Set(name string, rec StoredRecord, cb func(err error)) { cb(nil) }
func (s *slowStorage) Delete(name string, cb func(err error))                { cb(nil) }

func TestCoalescerDeduplicatesConcurrentLoads(t *testing.T) {
	defer goleak.VerifyNone(t)

	storage := &slowStorage{delay: 20 * time.Millisecond, rec: &StoredRecord{Version: 1, Data: json.RawMessage(`{"a":1}`)}}
	cache := NewMemoryCache(time.Minute)
	facade := NewFacade(cache, storage, nil, NewDefaultLogger())
	gate := NewStabilityGate()
	c := NewCoalescer(facade, gate)

	var wg sync.WaitGroup
	results := make(chan *Record, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			c.Load("r1", func(rec *Record, err error) {
				defer wg.Done()
				require.NoError(t, err)
				results <- rec
			})
		}()
	}
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), storage.calls.Load())
	count := 0
	for rec := range results {
		require.NotNil(t, rec)
		assert.Equal(t, int64(1), rec.Version)
		count++
	}
	assert.Equal(t, 10, count)
}

func TestCoalescerPropagatesError(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("backend unavailable")
	storage := &slowStorage{err: wantErr}
	cache := NewMemoryCache(time.Minute)
	facade := NewFacade(cache, storage, nil, NewDefaultLogger())
	gate := NewStabilityGate()
	c := NewCoalescer(facade, gate)

	done := make(chan error, 1)
	c.Load("r1", func(rec *Record, err error) { done <- err })
	assert.Equal(t, wantErr, <-done)
}

func TestCoalescerLoadStableWaitsForGate(t *testing.T) {
	defer goleak.VerifyNone(t)

	storage := &slowStorage{rec: &StoredRecord{Version: 2, Data: json.RawMessage(`{}`)}}
	cache := NewMemoryCache(time.Minute)
	facade := NewFacade(cache, storage, nil, NewDefaultLogger())
	gate := NewStabilityGate()
	c := NewCoalescer(facade, gate)

	gate.RunWhenRecordStable("r1", func() {})

	loaded := make(chan *Record, 1)
	go c.LoadStable("r1", func(rec *Record, err error) { loaded <- rec })

	select {
	case <-loaded:
		t.Fatal("LoadStable ran before the gate released its waiter")
	case <-time.After(30 * time.Millisecond):
	}

	gate.RemoveRecordRequest("r1")
	select {
	case rec := <-loaded:
		require.NotNil(t, rec)
		assert.Equal(t, int64(2), rec.Version)
	case <-time.After(time.Second):
		t.Fatal("LoadStable never ran after the gate released")
	}
}
