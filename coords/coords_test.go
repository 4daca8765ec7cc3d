package coords

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func completeSet() Set {
	set := Set{}
	for i, key := range Required {
		set[key] = Point{X: 100 + i, Y: 200 + i}
	}
	return set
}

func writeSet(t *testing.T, set Set) string {
	t.Helper()
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	path := filepath.Join(t.TempDir(), "camino.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	return path
}

func TestLoadComplete(t *testing.T) {
	path := writeSet(t, completeSet())

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed on complete set: %v", err)
	}
	if len(set) != len(Required) {
		t.Errorf("expected %d entries, got %d", len(Required), len(set))
	}
	if p := set.Get("dni_input"); p.X == 0 || p.Y == 0 {
		t.Errorf("dni_input should be non-zero, got %+v", p)
	}
}

func TestLoadMissingKey(t *testing.T) {
	set := completeSet()
	delete(set, "btn_house")
	path := writeSet(t, set)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing btn_house")
	}
}

func TestLoadZeroCoordinate(t *testing.T) {
	set := completeSet()
	set["close_btn"] = Point{X: 0, Y: 450}
	path := writeSet(t, set)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for zero-valued close_btn")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMissingListsAll(t *testing.T) {
	missing := Set{}.Missing()
	if len(missing) != len(Required) {
		t.Errorf("empty set should miss all %d keys, got %d", len(Required), len(missing))
	}
}
