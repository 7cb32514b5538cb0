package registry

import (
	"fmt"
	"testing"
)

type testItem struct {
	ID   string
	Name string
}

func TestBaseRegistry_Register(t *testing.T) {
	r := NewBaseRegistry[testItem]()

	tests := []struct {
		name    string
		item    testItem
		wantErr bool
	}{
		{name: "register valid item", item: testItem{ID: "a", Name: "A"}, wantErr: false},
		{name: "register item with empty name", item: testItem{ID: "", Name: "B"}, wantErr: true},
		{name: "register duplicate item", item: testItem{ID: "a", Name: "A2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.item.ID, tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBaseRegistry_GetListRemove(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing item to not be found")
	}

	if err := r.Register("a", testItem{ID: "a", Name: "A"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	item, ok := r.Get("a")
	if !ok || item.Name != "A" {
		t.Errorf("Get() = %+v, %v; want A, true", item, ok)
	}

	if n := len(r.List()); n != 1 {
		t.Errorf("List() length = %d, want 1", n)
	}

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := r.Remove("a"); err == nil {
		t.Error("Remove() of already-removed item should error")
	}
}

func TestBaseRegistry_CountClear(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("item-%d", i)
		if err := r.Register(name, testItem{ID: name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	if c := r.Count(); c != 3 {
		t.Errorf("Count() = %d, want 3", c)
	}
	r.Clear()
	if c := r.Count(); c != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", c)
	}
}

func TestBaseRegistry_Concurrency(t *testing.T) {
	r := NewBaseRegistry[testItem]()
	done := make(chan bool, 2)

	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			name := fmt.Sprintf("concurrent-%d", i)
			_ = r.Register(name, testItem{ID: name})
		}
	}()

	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			r.Get(fmt.Sprintf("concurrent-%d", i))
			r.Count()
			r.List()
		}
	}()

	<-done
	<-done

	if c := r.Count(); c != 100 {
		t.Errorf("Count() after concurrent access = %d, want 100", c)
	}
}
