package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("{{.Zones}} then {{ .Chunk.Index }} and {{.Zones}}")
	want := []string{"Chunk.Index", "Zones"}
	if len(got) != len(want) {
		t.Fatalf("ExtractVariables() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtractVariables()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHashText(t *testing.T) {
	if HashText("a") == HashText("b") {
		t.Error("different text should hash differently")
	}
	if len(HashText("a")) != 64 {
		t.Errorf("hash length = %d, want 64", len(HashText("a")))
	}
}

func TestRender(t *testing.T) {
	out, err := Render("t", "chunk {{.Index}} of {{.Total}}", map[string]int{"Index": 2, "Total": 5})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "chunk 2 of 5" {
		t.Errorf("Render() = %q", out)
	}

	if _, err := Render("t", "{{.Missing}}", map[string]int{}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := Render("t", "{{.Broken", nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, nil)
	r.Register(EmbeddedPrompt{Key: "extract_rules.system", Text: "default {{.Categories}}"})

	got, err := r.Resolve("extract_rules.system")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.IsOverride || got.Text != "default {{.Categories}}" {
		t.Errorf("Resolve() = %+v", got)
	}
	if got.Hash != HashText("default {{.Categories}}") {
		t.Error("embedded hash not computed")
	}

	if err := os.WriteFile(filepath.Join(dir, "extract_rules.system.tmpl"), []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = r.Resolve("extract_rules.system")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !got.IsOverride || got.Text != "custom" {
		t.Errorf("override not applied: %+v", got)
	}

	if _, err := r.Resolve("missing"); err == nil {
		t.Error("expected error for unknown key")
	}
	if n := len(r.AllEmbedded()); n != 1 {
		t.Errorf("AllEmbedded() = %d, want 1", n)
	}
}
