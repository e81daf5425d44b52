package internal

import "sync"

// Invoker spawns and tracks goroutines so a caller can wait for them to
// return. The Handler holds one, but nothing in the core spawns work
// through it or calls Wait. Copied in idiom from the teacher's own
// Invoker (internal/configuration.go).
type Invoker struct {
	group sync.WaitGroup
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

// Spawn runs f on its own goroutine, tracked by the Invoker's group.
func (i *Invoker) Spawn(f func()) {
	i.group.Add(1)
	go func() {
		defer i.group.Done()
		f()
	}()
}

// Wait blocks until every goroutine spawned through this Invoker has
// returned.
func (i *Invoker) Wait() {
	i.group.Wait()
}
