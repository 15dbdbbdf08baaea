package hashlink

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/llxisdsh/pb"
)

// loadResult is the outcome of a fill as delivered to DoChan callers.
type loadResult[V any] struct {
	Val V
	Err error
}

// loadCall is an in-flight fill. dups counts the callers that joined it
// after it started.
type loadCall[V any] struct {
	wg    sync.WaitGroup
	val   V
	err   error
	dups  int32
	chans []chan<- loadResult[V]
}

// loadGroup runs at most one cache fill per key at a time. Callers that ask
// for a key while its fill is running wait for it and share the result.
type loadGroup[K comparable, V any] struct {
	m pb.MapOf[K, *loadCall[V]]
}

// Do runs fn for key unless a fill for key is already in flight, in which
// case it waits for that fill. A panic in fn is re-raised in every Do
// caller as a *panicError; runtime.Goexit in fn exits every Do caller.
func (g *loadGroup[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	c, loaded := g.join(key, nil)
	if !loaded {
		g.doCall(c, key, fn, true)
		return c.val, c.err
	}
	c.wg.Wait()
	if pe, ok := c.err.(*panicError); ok {
		panic(pe)
	}
	if c.err == errGoexit {
		runtime.Goexit()
	}
	return c.val, c.err
}

// DoChan is like Do but delivers the result on a buffered channel, so a
// caller can stop waiting without abandoning the fill. The fill runs on
// its own goroutine; if fn panics or calls runtime.Goexit, channel callers
// receive the *panicError or errGoexit as Err instead.
func (g *loadGroup[K, V]) DoChan(key K, fn func() (V, error)) <-chan loadResult[V] {
	ch := make(chan loadResult[V], 1)
	c, loaded := g.join(key, ch)
	if !loaded {
		go g.doCall(c, key, fn, false)
	}
	return ch
}

// join returns the in-flight call for key, registering a new one if there is
// none. ch, if not nil, is subscribed to the result.
func (g *loadGroup[K, V]) join(key K, ch chan<- loadResult[V]) (*loadCall[V], bool) {
	var c *loadCall[V]
	_, loaded := g.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *loadCall[V]]) (*pb.EntryOf[K, *loadCall[V]], *loadCall[V], bool) {
			if l != nil {
				c = l.Value
				atomic.AddInt32(&c.dups, 1)
				if ch != nil {
					c.chans = append(c.chans, ch)
				}
				return l, c, true
			}
			c = &loadCall[V]{}
			if ch != nil {
				c.chans = []chan<- loadResult[V]{ch}
			}
			c.wg.Add(1)
			return &pb.EntryOf[K, *loadCall[V]]{Value: c}, c, false
		},
	)
	return c, loaded
}

// Forget stops tracking key. The next Do for key runs its own fill instead
// of joining the running one.
func (g *loadGroup[K, V]) Forget(key K) {
	g.m.Delete(key)
}

// release drops c from the table if it is still the call for key and
// returns the channels subscribed to it. Subscribing and releasing both go
// through ProcessEntry, so no channel is added after the result is sent.
func (g *loadGroup[K, V]) release(key K, c *loadCall[V]) []chan<- loadResult[V] {
	var chs []chan<- loadResult[V]
	released := false
	g.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *loadCall[V]]) (*pb.EntryOf[K, *loadCall[V]], *loadCall[V], bool) {
			if l != nil && l.Value == c {
				chs, released = c.chans, true
				return nil, nil, false
			}
			return l, nil, false
		},
	)
	if !released {
		// Forgotten while running; nobody can subscribe any more.
		chs = c.chans
	}
	return chs
}

// doCall runs fn and publishes its outcome to waiters. A panic in fn is
// recorded as a *panicError and, when rethrow is set, raised again in the
// calling goroutine once the waiters are released. runtime.Goexit in fn is
// recorded as errGoexit and lets the goroutine continue exiting.
func (g *loadGroup[K, V]) doCall(c *loadCall[V], key K, fn func() (V, error), rethrow bool) {
	returned := false
	defer func() {
		if !returned {
			c.err = errGoexit
		}
		chs := g.release(key, c)
		c.wg.Done()
		for _, ch := range chs {
			ch <- loadResult[V]{Val: c.val, Err: c.err}
		}
		if pe, ok := c.err.(*panicError); ok && rethrow {
			panic(pe)
		}
	}()

	func() {
		defer func() {
			if !returned {
				if r := recover(); r != nil {
					c.err = newPanicError(r)
				}
			}
		}()
		c.val, c.err = fn()
		returned = true
	}()
	// A recovered panic lands here; Goexit never does.
	returned = true
}

// panicError is a value recovered from a panicking loader together with the
// stack trace of the panic.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("%v\n\n%s", p.value, p.stack)
}

// Unwrap returns the panic value if it is an error.
func (p *panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}

// newPanicError captures v and the current stack minus its goroutine
// header line.
func newPanicError(v any) error {
	stack := debug.Stack()
	if i := bytes.IndexByte(stack, '\n'); i >= 0 {
		stack = stack[i+1:]
	}
	return &panicError{value: v, stack: stack}
}

// errGoexit is the outcome of a loader that called runtime.Goexit.
var errGoexit = errors.New("hashlink: loader called runtime.Goexit")
