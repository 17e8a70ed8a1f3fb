package services_test

import (
	"errors"
	"strings"
	"testing"

	"seqmart/internal/services"
)

func TestWrapTagsMarkerAndJoinsDetail(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "filter", "run mothur", "SRR123", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"filter", "run mothur", "SRR123"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"external tool", services.Wrap(services.ErrExternalTool, "merge", "", "", nil), true},
		{"missing output", services.Wrap(services.ErrMissingOutput, "filter", "", "", nil), true},
		{"template", services.Wrap(services.ErrTemplate, "filter", "render", "", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "", "bad jobs", nil), false},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
