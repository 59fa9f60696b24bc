package state

import (
	"sync"
	"testing"
)

func TestContainer_GetSet(t *testing.T) {
	t.Parallel()

	c := New(10)
	if got := c.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}

	c.Set(42)
	if got := c.Get(); got != 42 {
		t.Errorf("Get() after Set = %d, want 42", got)
	}
}

func TestContainer_SubscribeNotifies(t *testing.T) {
	t.Parallel()

	c := New("a")
	var got []string
	c.Subscribe(func(s string) {
		got = append(got, s)
	})

	c.Set("b")
	c.Set("c")

	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("listener received %v, want [b c]", got)
	}
}

func TestContainer_Unsubscribe(t *testing.T) {
	t.Parallel()

	c := New(0)
	calls := 0
	unsub := c.Subscribe(func(int) { calls++ })

	c.Set(1)
	unsub()
	c.Set(2)

	if calls != 1 {
		t.Errorf("listener called %d times after unsubscribe, want 1", calls)
	}
	if c.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, want 0", c.ListenerCount())
	}
}

func TestContainer_Update(t *testing.T) {
	t.Parallel()

	c := New([]int{1, 2})
	next := c.Update(func(cur []int) []int {
		out := make([]int, len(cur), len(cur)+1)
		copy(out, cur)
		return append(out, 3)
	})

	if len(next) != 3 {
		t.Fatalf("Update returned %v, want 3 elements", next)
	}
	if got := c.Get(); len(got) != 3 || got[2] != 3 {
		t.Errorf("Get() = %v, want [1 2 3]", got)
	}
}

func TestContainer_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	c := New(map[string]int{"x": 1})
	before := c.Get()

	c.Update(func(cur map[string]int) map[string]int {
		out := make(map[string]int, len(cur)+1)
		for k, v := range cur {
			out[k] = v
		}
		out["y"] = 2
		return out
	})

	if _, ok := before["y"]; ok {
		t.Error("old snapshot mutated by Update; copy-on-write violated")
	}
}

func TestContainer_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set(n)
			_ = c.Get()
		}(i)
	}
	wg.Wait()
}
