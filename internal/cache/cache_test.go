package cache

import "testing"

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Read("missing"); ok {
		t.Fatal("read of missing key must report absent")
	}

	m.Write("item:1", "a")
	v, ok := m.Read("item:1")
	if !ok || v != "a" {
		t.Fatalf("got %v %v, want a true", v, ok)
	}

	m.Write("item:1", "b")
	v, _ = m.Read("item:1")
	if v != "b" {
		t.Fatalf("overwrite failed, got %v", v)
	}
}

func TestInvalidateDropsGroupMembers(t *testing.T) {
	m := NewMemory()
	m.Write("next-up", "list")
	m.Write("next-up:user1", "page")
	m.Write("item:1", "a")
	m.Write("item:2", "b")
	m.Write("resume:user1", "r")

	m.Invalidate(GroupNextUp, GroupItem)

	for _, key := range []string{"next-up", "next-up:user1", "item:1", "item:2"} {
		if _, ok := m.Read(key); ok {
			t.Errorf("key %s should have been invalidated", key)
		}
	}
	if _, ok := m.Read("resume:user1"); !ok {
		t.Error("unrelated group must survive invalidation")
	}
}

func TestInvalidateIsPrefixNotSubstring(t *testing.T) {
	m := NewMemory()
	m.Write("item:1", "a")
	m.Write("itemized:1", "keep")

	m.Invalidate(GroupItem)

	if _, ok := m.Read("itemized:1"); !ok {
		t.Fatal("keys sharing only a substring must not be dropped")
	}
}

func TestWatchStateGroupsCoverItemKey(t *testing.T) {
	m := NewMemory()
	m.Write(ItemKey("ep1"), "cached")

	m.Invalidate(WatchStateGroups...)

	if m.Len() != 0 {
		t.Fatalf("expected empty cache, %d entries remain", m.Len())
	}
}
