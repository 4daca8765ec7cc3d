package records

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		sample string
		want   rune
	}{
		{"a;b;c\n1;2;3", ';'},
		{"a,b,c\n1,2,3", ','},
		{"a,b;c\n1,2,3\n4,5,6", ','},
		{"", ','},
	}
	for _, tt := range tests {
		if got := DetectDelimiter([]byte(tt.sample)); got != tt.want {
			t.Errorf("DetectDelimiter(%q) = %q, expected %q", tt.sample, got, tt.want)
		}
	}
}

func TestLoadSemicolon(t *testing.T) {
	path := writeFile(t, "lote.csv",
		"Nombre del Cliente;DNI;Linea1\nJuan Perez;30111222;261555\nMaria Lopez;27333444;261666\n")

	input, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if input.Delimiter != ';' {
		t.Errorf("expected delimiter ';', got %q", input.Delimiter)
	}
	if input.DNIColumn != "DNI" {
		t.Errorf("expected DNI column 'DNI', got %q", input.DNIColumn)
	}
	if input.NameColumn != "Nombre del Cliente" {
		t.Errorf("expected name column 'Nombre del Cliente', got %q", input.NameColumn)
	}
	if len(input.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(input.Records))
	}
	if input.Records[0].DNI != "30111222" || input.Records[0].Name != "Juan Perez" {
		t.Errorf("unexpected first record: %+v", input.Records[0])
	}
	if input.Records[1].Row["Linea1"] != "261666" {
		t.Errorf("pass-through column lost: %+v", input.Records[1].Row)
	}
}

func TestLoadColumnVariants(t *testing.T) {
	path := writeFile(t, "lote.csv", "cliente,documento\nAna Rios,20111222\n")

	input, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if input.DNIColumn != "documento" || input.NameColumn != "cliente" {
		t.Errorf("column detection failed: dni=%q name=%q", input.DNIColumn, input.NameColumn)
	}
}

func TestLoadSkipsEmptyDNI(t *testing.T) {
	path := writeFile(t, "lote.csv", "DNI;Nombre\n30111222;Juan\n;Sin Documento\n \t;Otro\n")

	input, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(input.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(input.Records))
	}
}

func TestLoadMissingColumns(t *testing.T) {
	noDNI := writeFile(t, "a.csv", "Nombre;Telefono\nJuan;123\n")
	if _, err := Load(noDNI); err == nil || !strings.Contains(err.Error(), "DNI") {
		t.Errorf("expected DNI column error, got %v", err)
	}

	noName := writeFile(t, "b.csv", "DNI;Telefono\n30111222;123\n")
	if _, err := Load(noName); err == nil || !strings.Contains(err.Error(), "name column") {
		t.Errorf("expected name column error, got %v", err)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "resultados.csv")

	w := NewResultsWriter(resultsPath, []string{"Nombre del Cliente", "DNI"})
	rec := Record{DNI: "30111222", Name: "Juan Perez",
		Row: map[string]string{"Nombre del Cliente": "Juan Perez", "DNI": "30111222"}}

	if err := w.Append(rec, "Av. Siempre Viva 123\nPiso 2"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	done, err := LoadProgress(resultsPath, "DNI")
	if err != nil {
		t.Fatalf("LoadProgress failed: %v", err)
	}
	if _, ok := done["30111222"]; !ok {
		t.Errorf("expected 30111222 in progress set, got %v", done)
	}
	if len(done) != 1 {
		t.Errorf("expected 1 completed DNI, got %d", len(done))
	}

	data, err := os.ReadFile(resultsPath)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "Nombre del Cliente;DNI;Ubicacion") {
		t.Errorf("missing or wrong header: %q", content)
	}
	if !strings.Contains(content, "Av. Siempre Viva 123 Piso 2") {
		t.Errorf("location newlines should be flattened: %q", content)
	}
}

func TestProgressMissingFile(t *testing.T) {
	done, err := LoadProgress(filepath.Join(t.TempDir(), "none.csv"), "DNI")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(done) != 0 {
		t.Errorf("expected empty progress set, got %v", done)
	}
}

func TestResultsHeaderWrittenOnce(t *testing.T) {
	resultsPath := filepath.Join(t.TempDir(), "resultados.csv")
	w := NewResultsWriter(resultsPath, []string{"DNI"})

	for _, dni := range []string{"1111", "2222"} {
		rec := Record{DNI: dni, Row: map[string]string{"DNI": dni}}
		if err := w.Append(rec, "addr "+dni); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	data, _ := os.ReadFile(resultsPath)
	if got := strings.Count(string(data), "DNI;Ubicacion"); got != 1 {
		t.Errorf("header should appear exactly once, found %d times in %q", got, string(data))
	}
}

func TestFailuresWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallos.tsv")
	w := NewFailuresWriter(path)

	if err := w.Append("27333444", "no creado - sin nombre copiado"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	parts := strings.Split(strings.TrimSpace(string(data)), "\t")
	if len(parts) != 3 {
		t.Fatalf("expected 3 tab-separated fields, got %d: %q", len(parts), string(data))
	}
	if parts[0] != "27333444" || !strings.HasPrefix(parts[1], "no creado") {
		t.Errorf("unexpected failure row: %q", string(data))
	}
}
