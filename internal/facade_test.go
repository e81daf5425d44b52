package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacadeLoadFallsBackFromCacheToStorage(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	storage := NewMemoryStorage()
	storage.Set("r1", StoredRecord{Version: 1, Data: json.RawMessage(`{"a":1}`)}, nil)

	f := NewFacade(cache, storage, nil, NewDefaultLogger())
	done := make(chan *StoredRecord, 1)
	f.Load("r1", func(err error, rec *StoredRecord) {
		require.NoError(t, err)
		done <- rec
	})
	rec := <-done
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.Version)
}

func TestFacadeExcludedNamesSkipDurableWrites(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	storage := NewMemoryStorage()
	f := NewFacade(cache, storage, []string{"ephemeral."}, NewDefaultLogger())

	assert.True(t, f.Excluded("ephemeral.session42"))
	assert.False(t, f.Excluded("durable.profile"))

	done := make(chan error, 1)
	f.WriteDurable("ephemeral.session42", StoredRecord{Version: 1}, func(err error) { done <- err })
	require.NoError(t, <-done)

	storedDone := make(chan *StoredRecord, 1)
	storage.Get("ephemeral.session42", func(err error, rec *StoredRecord) { storedDone <- rec })
	assert.Nil(t, <-storedDone)
}

type erroringStorage struct{}

func (erroringStorage) Get(name string, cb func(err error, rec *StoredRecord)) { cb(nil, nil) }
func (erroringStorage) Set(name string, rec StoredRecord, cb func(err error)) {
	cb(errors.New("disk full"))
}
func (erroringStorage) Delete(name string, cb func(err error)) { cb(errors.New("disk full")) }

func TestFacadeDurableWriteErrorIsReturnedNotPanicked(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	f := NewFacade(cache, erroringStorage{}, nil, NewDefaultLogger())

	done := make(chan error, 1)
	f.WriteDurable("r1", StoredRecord{Version: 1}, func(err error) { done <- err })
	assert.Error(t, <-done)
}
