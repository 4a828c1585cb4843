package abi

import (
	"sync"
	"testing"

	"github.com/wippyai/cs-bindgen/schema"
)

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestHandleTableInsertGet(t *testing.T) {
	table := NewHandleTable()
	typ := schema.TypeName{Name: "Counter", Module: "shapes"}

	p1 := table.Insert(typ, "a")
	p2 := table.Insert(typ, "b")
	if p1 == 0 || p2 == 0 || p1 == p2 {
		t.Fatalf("pointers %d, %d", p1, p2)
	}

	v, ok := table.Get(p1)
	if !ok || v != "a" {
		t.Errorf("Get = %v, %v", v, ok)
	}
	if _, ok := table.Get(0); ok {
		t.Error("pointer 0 must be invalid")
	}
	if _, ok := table.GetTyped(p2, schema.TypeName{Name: "Other"}); ok {
		t.Error("GetTyped must reject a different type")
	}
	if v, ok := table.GetTyped(p2, typ); !ok || v != "b" {
		t.Errorf("GetTyped = %v, %v", v, ok)
	}
}

func TestHandleTableRemoveCallsDropper(t *testing.T) {
	table := NewHandleTable()
	d := &dropCounter{}
	ptr := table.Insert(schema.TypeName{Name: "Counter"}, d)

	if !table.Drop(ptr) {
		t.Fatal("first drop should find the value")
	}
	if table.Drop(ptr) {
		t.Error("second drop should report a dead pointer")
	}
	if d.drops != 1 {
		t.Errorf("dropper called %d times", d.drops)
	}
	if table.Drops() != 1 || table.Len() != 0 {
		t.Errorf("drops=%d len=%d", table.Drops(), table.Len())
	}
}

func TestHandleTableClose(t *testing.T) {
	table := NewHandleTable()
	d := &dropCounter{}
	table.Insert(schema.TypeName{Name: "A"}, d)
	table.Insert(schema.TypeName{Name: "B"}, d)

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if d.drops != 2 || table.Len() != 0 {
		t.Errorf("drops=%d len=%d", d.drops, table.Len())
	}
	if ptr := table.Insert(schema.TypeName{Name: "C"}, 1); ptr != 0 {
		t.Errorf("insert after close returned %d", ptr)
	}
}

func TestOwnedHandleDisposeOnce(t *testing.T) {
	table := NewHandleTable()
	typ := schema.TypeName{Name: "Counter"}
	ptr := table.Insert(typ, 7)

	h := NewOwnedHandle(ptr, typ, func(p uint32) { table.Drop(p) })
	if h.Pointer() != ptr || h.Type() != typ {
		t.Fatalf("handle = %d %s", h.Pointer(), h.Type())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Dispose()
		}()
	}
	wg.Wait()

	if table.Drops() != 1 {
		t.Errorf("drop entry point called %d times", table.Drops())
	}
	if h.Pointer() != 0 {
		t.Error("disposed handle should report the null pointer")
	}
}

func TestOwnedHandleConsume(t *testing.T) {
	calls := 0
	h := NewOwnedHandle(9, schema.TypeName{Name: "Counter"}, func(uint32) { calls++ })

	if got := h.Consume(); got != 9 {
		t.Errorf("Consume = %d", got)
	}
	h.Dispose()
	if calls != 0 {
		t.Error("consumed handle must not be dropped by the host")
	}
}
