package rtsvc

import (
	"context"
	"sync"
)

// Thread is a logical, cooperatively-scheduled execution context bound to
// one OS thread (spec §5). Compiler is the well-known logical thread on
// which all name-tree mutation happens; every other Thread is a user
// actor's home.
type Thread struct {
	name  string
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// Compiler is the single well-known logical thread every NameSet mutation
// must run on (spec §5 "Mutation rule").
var Compiler = NewThread("Compiler")

func NewThread(name string) *Thread {
	t := &Thread{name: name, tasks: make(chan func(), 64), done: make(chan struct{})}
	go t.loop()
	return t
}

func (t *Thread) loop() {
	for {
		select {
		case fn := <-t.tasks:
			fn()
		case <-t.done:
			return
		}
	}
}

func (t *Thread) Name() string { return t.name }

// Stop terminates the thread's fiber loop. Safe to call more than once.
func (t *Thread) Stop() {
	t.once.Do(func() { close(t.done) })
}

// Send enqueues fn to run on t and blocks the caller's goroutine (standing
// in for "the caller's fiber") until fn completes, delivering cross-thread
// calls in FIFO order per origin thread (spec §5 "Ordering guarantees").
func (t *Thread) Send(ctx context.Context, fn func()) error {
	result := make(chan struct{})
	task := func() {
		defer close(result)
		fn()
	}
	select {
	case t.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloneEnv threads object identity during a deep copy that crosses a
// thread boundary, so the caller's graph and the callee's graph share no
// mutable state afterward (spec §5, §8 "Cross-thread cloning").
type CloneEnv struct {
	seen map[any]any
}

func NewCloneEnv() *CloneEnv {
	return &CloneEnv{seen: make(map[any]any)}
}

// Clone returns the previously-cloned counterpart of v if this CloneEnv
// has already visited it (preserving value-identity across the copy), or
// records and returns make() otherwise.
func (c *CloneEnv) Clone(v any, make func() any) any {
	if existing, ok := c.seen[v]; ok {
		return existing
	}
	clone := make()
	c.seen[v] = clone
	return clone
}

// ObjMap is the thread-safe object-identity map used during hot reload to
// populate (old -> new) pointers before the GC-style reference swap (spec
// §4.10 step 4).
type ObjMap struct {
	mu sync.RWMutex
	m  map[any]any
}

func NewObjMap() *ObjMap {
	return &ObjMap{m: make(map[any]any)}
}

func (o *ObjMap) Put(oldObj, newObj any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[oldObj] = newObj
}

func (o *ObjMap) Get(oldObj any) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.m[oldObj]
	return v, ok
}

func (o *ObjMap) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.m)
}

// Each calls fn for every (old, new) pair. Used by ReplaceTasks.apply to
// walk roots rewriting pointers (spec §4.10 step 4).
func (o *ObjMap) Each(fn func(oldObj, newObj any)) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for k, v := range o.m {
		fn(k, v)
	}
}
