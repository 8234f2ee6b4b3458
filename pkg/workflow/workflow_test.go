package workflow

import (
	"errors"
	"testing"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		input    string
		filename string
		workflow string
		wantErr  bool
	}{
		{"script.js:my_workflow", "script.js", "my_workflow", false},
		{"flows/etl.js:daily", "flows/etl.js", "daily", false},
		{"noColon", "", "", true},
		{"a:b:c", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		ref, err := ParseReference(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseReference(%q): expected error, got %+v", tt.input, ref)
				continue
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("ParseReference(%q): expected ValidationError, got %T", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseReference(%q): %v", tt.input, err)
			continue
		}
		if ref.Filename != tt.filename || ref.Workflow != tt.workflow {
			t.Errorf("ParseReference(%q) = %+v, want {%s %s}", tt.input, ref, tt.filename, tt.workflow)
		}
	}
}

func TestReferenceModule(t *testing.T) {
	tests := []struct {
		filename string
		module   string
	}{
		{"script.js", "script"},
		{"flows/etl.js", "flows.etl"},
		{"my_flow.js", "my_flow"},
	}
	for _, tt := range tests {
		ref := Reference{Filename: tt.filename}
		if got := ref.Module(); got != tt.module {
			t.Errorf("Module(%q) = %q, want %q", tt.filename, got, tt.module)
		}
	}
}

func TestParseTypeTag(t *testing.T) {
	for _, s := range []string{"string", "integer", "float", "boolean", "structured_dataset"} {
		tag, err := ParseTypeTag(s)
		if err != nil {
			t.Errorf("ParseTypeTag(%q): %v", s, err)
		}
		if tag.String() != s {
			t.Errorf("ParseTypeTag(%q) = %q", s, tag)
		}
	}
	if _, err := ParseTypeTag("dataframe"); err == nil {
		t.Error("ParseTypeTag accepted unknown type")
	}
}

func TestExecutionPhaseIsTerminal(t *testing.T) {
	terminal := []ExecutionPhase{PhaseSucceeded, PhaseFailed, PhaseAborted}
	for _, p := range terminal {
		if !p.IsTerminal() {
			t.Errorf("%s should be terminal", p)
		}
	}
	for _, p := range []ExecutionPhase{PhaseQueued, PhaseRunning} {
		if p.IsTerminal() {
			t.Errorf("%s should not be terminal", p)
		}
	}
}

func TestQualifiedName(t *testing.T) {
	e := &Entity{Module: "script", Name: "wf"}
	if got := e.QualifiedName(); got != "script.wf" {
		t.Errorf("QualifiedName() = %q", got)
	}
}
