package device

import "testing"

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) GetSetting(key string) (string, error) {
	return s.values[key], nil
}

func (s *memStore) SetSetting(key, value string) error {
	s.values[key] = value
	return nil
}

func TestEnsureID_GeneratesOnce(t *testing.T) {
	store := newMemStore()

	first, err := EnsureID(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" {
		t.Fatal("expected a generated device id")
	}

	second, err := EnsureID(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Fatalf("device id changed between calls: %q vs %q", first, second)
	}
}

func TestEnsureID_ReusesStoredValue(t *testing.T) {
	store := newMemStore()
	store.values[settingKey] = "existing-device"

	id, err := EnsureID(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "existing-device" {
		t.Fatalf("expected stored id to be reused, got %q", id)
	}
}
