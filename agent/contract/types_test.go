package contract

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := map[string]Role{
		"":                RoleParent,
		"Parent":          RoleParent,
		" teacher ":       RoleTeacher,
		"THERAPIST":       RoleTherapist,
		"other caregiver": RoleCaregiver,
		"other_caregiver": RoleCaregiver,
		"caregiver":       RoleCaregiver,
		"child":           RoleChild,
	}
	for in, want := range tests {
		got, err := ParseRole(in)
		if err != nil {
			t.Fatalf("ParseRole(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseRole("doctor"); !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseRole(doctor) error = %v, want ErrValidation", err)
	}
}

func TestPairExchanges(t *testing.T) {
	t.Parallel()

	turns := []Turn{
		{Sender: SenderUser, Text: "q1", Status: TurnOK},
		{Sender: SenderAssistant, Text: "a1", Status: TurnOK},
		{Sender: SenderUser, Text: "lost", Status: TurnFailed},
		{Sender: SenderUser, Text: "q2", Status: TurnOK},
		{Sender: SenderAssistant, Text: "a2", Status: TurnOK},
		{Sender: SenderAssistant, Text: "orphan", Status: TurnOK},
		{Sender: SenderUser, Text: "pending", Status: TurnOK},
	}

	want := []Exchange{{User: "q1", Assistant: "a1"}, {User: "q2", Assistant: "a2"}}
	if diff := cmp.Diff(want, PairExchanges(turns, 0)); diff != "" {
		t.Fatalf("PairExchanges mismatch (-want +got):\n%s", diff)
	}

	limited := PairExchanges(turns, 1)
	if diff := cmp.Diff([]Exchange{{User: "q2", Assistant: "a2"}}, limited); diff != "" {
		t.Fatalf("limited mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutingDecision(t *testing.T) {
	t.Parallel()

	d := RoutingDecision{WebSearch: true}
	if d.Enabled(CapabilityDocument) || !d.Enabled(CapabilityWeb) || d.Enabled(Capability("unknown")) {
		t.Fatalf("Enabled() mismatch for %+v", d)
	}
	if d.None() || !(RoutingDecision{}).None() {
		t.Fatal("None() mismatch")
	}
}

func TestNewOutputsHasEveryCapability(t *testing.T) {
	t.Parallel()

	out := NewOutputs()
	for _, c := range Capabilities {
		v, ok := out[c]
		if !ok || v != "" {
			t.Fatalf("capability %s = %q, %v", c, v, ok)
		}
	}
}

func TestCollectKeepsEveryCapability(t *testing.T) {
	t.Parallel()

	out := Collect(ResponderOutput{Capability: CapabilityWeb, Text: "w"}, ResponderOutput{})
	if len(out) != len(Capabilities) {
		t.Fatalf("len(Collect()) = %d, want %d", len(out), len(Capabilities))
	}
	if out[CapabilityWeb] != "w" || out[CapabilityDocument] != "" || out[CapabilityCalculator] != "" {
		t.Fatalf("Collect() = %#v", out)
	}
}

func TestMatchText(t *testing.T) {
	t.Parallel()

	if got := (Match{Metadata: map[string]any{"content": "c", "text": "t"}}).Text(); got != "c" {
		t.Fatalf("Text() = %q, want content first", got)
	}
	if got := (Match{Metadata: map[string]any{"content": " ", "text": "t"}}).Text(); got != "t" {
		t.Fatalf("Text() = %q, want text fallback", got)
	}
	if got := (Match{}).Text(); got != "" {
		t.Fatalf("Text() = %q, want empty", got)
	}
}
