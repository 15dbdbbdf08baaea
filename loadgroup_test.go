package hashlink

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// waitJoined blocks until n-1 callers have joined the fill for key.
func waitJoined[K comparable, V any](g *loadGroup[K, V], key K, n int) {
	for {
		if c, ok := g.m.Load(key); ok && atomic.LoadInt32(&c.dups) == int32(n-1) {
			return
		}
		runtime.Gosched()
	}
}

func TestLoadGroup_DoDuplicates(t *testing.T) {
	var g loadGroup[string, int]
	var calls int32
	key := "same"
	n := 64

	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			v, err := g.Do(key, func() (int, error) {
				atomic.AddInt32(&calls, 1)
				waitJoined(&g, key, n)
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("bad result: %v, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("fn executed %d times, want 1", calls)
	}
	if _, ok := g.m.Load(key); ok {
		t.Fatalf("finished fill still tracked")
	}
}

func TestLoadGroup_DoChan(t *testing.T) {
	var g loadGroup[string, string]
	key := "dup"
	n := 32

	chans := make([]<-chan loadResult[string], n)
	release := make(chan struct{})
	for i := range n {
		chans[i] = g.DoChan(key, func() (string, error) {
			<-release
			return "ok", nil
		})
	}
	close(release)
	for _, ch := range chans {
		r := <-ch
		if r.Err != nil || r.Val != "ok" {
			t.Fatalf("bad: %+v", r)
		}
	}
}

func TestLoadGroup_Error(t *testing.T) {
	var g loadGroup[int, int]
	boom := errors.New("boom")
	if _, err := g.Do(1, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	// Errors are not remembered.
	v, err := g.Do(1, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("v=%v err=%v", v, err)
	}
}

func TestLoadGroup_Forget(t *testing.T) {
	var g loadGroup[string, int]
	key := "work"

	started := make(chan struct{})
	unblock := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = g.Do(key, func() (int, error) {
			close(started)
			<-unblock
			return 1, nil
		})
	}()

	<-started
	g.Forget(key)

	v, err := g.Do(key, func() (int, error) { return 2, nil })
	if err != nil || v != 2 {
		t.Fatalf("unexpected: v=%v err=%v", v, err)
	}

	close(unblock)
	<-done
}

func TestLoadGroup_Do_Panic(t *testing.T) {
	var g loadGroup[string, int]
	key := "panic"
	n := 16

	var wg sync.WaitGroup
	wg.Add(n)
	panics := int32(0)
	start := make(chan struct{})
	for range n {
		go func() {
			defer wg.Done()
			defer func() {
				r := recover()
				pe, ok := r.(*panicError)
				if !ok {
					t.Errorf("recovered %T, want *panicError", r)
					return
				}
				if pe.value != "boom" || !strings.Contains(pe.Error(), "boom") {
					t.Errorf("bad panic value: %v", pe.value)
				}
				atomic.AddInt32(&panics, 1)
			}()
			<-start
			_, _ = g.Do(key, func() (int, error) {
				panic("boom")
			})
		}()
	}
	close(start)
	wg.Wait()
	if panics != int32(n) {
		t.Fatalf("expected %d panics, got %d", n, panics)
	}
}

func TestLoadGroup_Do_Goexit(t *testing.T) {
	var g loadGroup[string, int]
	key := "goexit"
	n := 16

	var wg sync.WaitGroup
	wg.Add(n)
	exited := int32(0)
	start := make(chan struct{})
	for range n {
		go func() {
			defer wg.Done()
			// runtime.Goexit executes deferred funcs.
			defer atomic.AddInt32(&exited, 1)
			<-start
			_, _ = g.Do(key, func() (int, error) {
				runtime.Goexit()
				return 0, nil
			})
		}()
	}
	close(start)
	wg.Wait()
	if exited != int32(n) {
		t.Fatalf("expected %d goexits, got %d", n, exited)
	}
}

func TestLoadGroup_DoChan_Panic(t *testing.T) {
	var g loadGroup[string, int]
	release := make(chan struct{})
	chans := make([]<-chan loadResult[int], 4)
	for i := range chans {
		chans[i] = g.DoChan("p", func() (int, error) {
			<-release
			panic("boom")
		})
	}
	close(release)
	for _, ch := range chans {
		r := <-ch
		pe, ok := r.Err.(*panicError)
		if !ok || pe.value != "boom" {
			t.Fatalf("err=%v, want *panicError(boom)", r.Err)
		}
	}
	if _, ok := g.m.Load("p"); ok {
		t.Fatalf("panicked fill still tracked")
	}
}

func TestLoadGroup_DoChan_Goexit(t *testing.T) {
	var g loadGroup[string, int]
	r := <-g.DoChan("x", func() (int, error) {
		runtime.Goexit()
		return 0, nil
	})
	if !errors.Is(r.Err, errGoexit) {
		t.Fatalf("err=%v, want errGoexit", r.Err)
	}
}

func TestLoadGroup_ReturnedPanicErrorIsNotRaised(t *testing.T) {
	var g loadGroup[int, int]
	wrapped := fmt.Errorf("load: %w", newPanicError("old"))
	if _, err := g.Do(1, func() (int, error) { return 0, wrapped }); err != wrapped {
		t.Fatalf("err=%v", err)
	}
}

func TestPanicError_Unwrap(t *testing.T) {
	boom := errors.New("boom")
	err := newPanicError(boom)
	if !errors.Is(err, boom) {
		t.Fatalf("panicError does not unwrap to its error value")
	}
	if errors.Unwrap(newPanicError("text")) != nil {
		t.Fatalf("non-error value unwrapped")
	}
}
