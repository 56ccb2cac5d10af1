package api

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type sampleTable []sample

func (s sampleTable) Header() []string { return []string{"NAME", "COUNT"} }

func (s sampleTable) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, r := range s {
		rows = append(rows, []string{r.Name, strings.Repeat("*", r.Count)})
	}
	return rows
}

func TestOutputTo(t *testing.T) {
	data := sample{Name: "FSI", Count: 3}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"name": "FSI"`) {
			t.Errorf("unexpected json: %s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), "name: FSI") {
			t.Errorf("unexpected yaml: %s", buf.String())
		}
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatTable, sampleTable{{"FSI", 2}, {"Parking", 1}}); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[1], "**") {
			t.Errorf("unexpected table: %q", buf.String())
		}
	})

	t.Run("table falls back to yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatTable, data); err != nil {
			t.Fatalf("OutputTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), "count: 3") {
			t.Errorf("unexpected fallback: %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := OutputTo(&bytes.Buffer{}, OutputFormat("xml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("expected json, got %s", GetOutputFormat())
	}
	SetOutputFormat("bogus")
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("expected default, got %s", GetOutputFormat())
	}
	if _, err := ParseOutputFormat("bogus"); err == nil {
		t.Error("expected parse error")
	}
}
