package internal

// Cache and Storage share an identical asynchronous shape (spec §6):
// both complete through a callback carrying either an error or the
// stored record. Cache is expected to answer fast and is always
// consulted first; Storage is the durable tier consulted on a cache
// miss and written to in the background.
type Cache interface {
	Get(name string, cb func(err error, rec *StoredRecord))
	Set(name string, rec StoredRecord, cb func(err error))
	Delete(name string, cb func(err error))
}

type Storage interface {
	Get(name string, cb func(err error, rec *StoredRecord))
	Set(name string, rec StoredRecord, cb func(err error))
	Delete(name string, cb func(err error))
}
