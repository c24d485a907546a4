package chat

import (
	"sync"
	"testing"
)

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	registry := NewRegistry()

	alice := newConnection(nil)
	bob := newConnection(nil)
	registry.Register(alice, "alice")
	registry.Register(bob, "bob")

	if registry.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", registry.Len())
	}

	snapshot := registry.Snapshot(alice)
	if len(snapshot) != 1 {
		t.Fatalf("snapshot excluding alice has %d members, want 1", len(snapshot))
	}
	if snapshot[0] != bob {
		t.Error("snapshot excluding alice should contain only bob")
	}

	if got := registry.Snapshot(nil); len(got) != 2 {
		t.Errorf("snapshot excluding nobody has %d members, want 2", len(got))
	}
}

func TestRegistryUnregisterOnlyOnceReportsRemoval(t *testing.T) {
	registry := NewRegistry()
	conn := newConnection(nil)
	registry.Register(conn, "alice")

	if !registry.Unregister(conn) {
		t.Error("first Unregister should report removal")
	}
	if registry.Unregister(conn) {
		t.Error("second Unregister should report the connection was gone")
	}
	if registry.Len() != 0 {
		t.Errorf("Len() = %d after unregister, want 0", registry.Len())
	}
}

func TestRegistrySnapshotIsPointInTime(t *testing.T) {
	registry := NewRegistry()
	alice := newConnection(nil)
	registry.Register(alice, "alice")

	snapshot := registry.Snapshot(nil)
	registry.Register(newConnection(nil), "bob")

	if len(snapshot) != 1 {
		t.Errorf("snapshot grew after later registration: %d members", len(snapshot))
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := newConnection(nil)
			registry.Register(conn, "peer")
			registry.Snapshot(nil)
			registry.Unregister(conn)
		}()
	}
	wg.Wait()

	if registry.Len() != 0 {
		t.Errorf("Len() = %d after balanced register/unregister, want 0", registry.Len())
	}
}
