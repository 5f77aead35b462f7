package tenant

import (
	"testing"

	"github.com/spigell/talent-intake/internal/dispatch"
)

func TestNormalizeAndValidateDefaults(t *testing.T) {
	list, res := NormalizeAndValidate([]Tenant{{ID: " acme ", Locale: "ES"}}, nil)
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected a warning for the missing reviewer, got %v", res.Warnings)
	}

	reg := NewRegistry(list)
	acme, ok := reg.Get("acme")
	if !ok {
		t.Fatal("acme not registered")
	}
	if acme.Locale != "es" || acme.MatchingMode != MatchingAI || acme.Reviewer.Transport != dispatch.TransportLog {
		t.Fatalf("defaults not applied: %+v", acme)
	}

	def, ok := reg.Get("")
	if !ok || def.ID != DefaultID {
		t.Fatalf("expected the default tenant, got %+v", def)
	}
	if _, ok := reg.Get("nobody"); ok {
		t.Fatal("unknown tenant resolved")
	}
	if ids := reg.IDs(); len(ids) != 2 || ids[0] != "acme" || ids[1] != DefaultID {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestNormalizeAndValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		tenant Tenant
	}{
		{"missing id", Tenant{}},
		{"bad mode", Tenant{ID: "a", MatchingMode: "vibes"}},
		{"webhook without address", Tenant{ID: "a", Reviewer: dispatch.Reviewer{Transport: "webhook"}}},
		{"unknown transport", Tenant{ID: "a", Reviewer: dispatch.Reviewer{Transport: "fax"}}},
		{"unknown job source", Tenant{ID: "a", JobSource: "ftp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := NormalizeAndValidate([]Tenant{tt.tenant}, []string{"file"})
			if res.OK() || res.Err() == nil {
				t.Fatalf("expected an error for %+v", tt.tenant)
			}
		})
	}

	_, res := NormalizeAndValidate([]Tenant{{ID: "a"}, {ID: "a"}}, nil)
	if res.OK() {
		t.Fatal("expected duplicate tenant error")
	}
}
