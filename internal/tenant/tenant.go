// Package tenant holds the per-customer settings the conversation is parameterized by.
package tenant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/talent-intake/internal/dispatch"
)

// Matching modes.
const (
	MatchingAI     = "ai"
	MatchingRubric = "rubric"
)

// DefaultID names the tenant used for events that carry no tenant id.
const DefaultID = "default"

// Tenant is one customer deployment.
type Tenant struct {
	ID           string            `mapstructure:"id"`
	Locale       string            `mapstructure:"locale"`
	Reviewer     dispatch.Reviewer `mapstructure:"reviewer"`
	JobSource    string            `mapstructure:"job-source"`
	MatchingMode string            `mapstructure:"matching-mode"`
}

// Validation collects configuration problems; only Errors prevent startup.
type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// OK reports whether there are no errors.
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err joins the errors into one, or returns nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("invalid tenant configuration: %s", strings.Join(v.Errors, "; "))
}

// NormalizeAndValidate fills defaults and checks every tenant. sources lists
// the configured job source names; an empty list skips that check.
func NormalizeAndValidate(list []Tenant, sources []string) ([]Tenant, Validation) {
	var res Validation
	known := make(map[string]bool, len(sources))
	for _, s := range sources {
		known[s] = true
	}

	out := make([]Tenant, 0, len(list)+1)
	seen := map[string]bool{}
	for i, t := range list {
		t.ID = strings.TrimSpace(t.ID)
		t.Locale = strings.ToLower(strings.TrimSpace(t.Locale))
		t.MatchingMode = strings.ToLower(strings.TrimSpace(t.MatchingMode))
		t.Reviewer.Transport = strings.ToLower(strings.TrimSpace(t.Reviewer.Transport))

		if t.ID == "" {
			res.addErr("tenants[%d].id is required", i)
			continue
		}
		if seen[t.ID] {
			res.addErr("tenant %q is defined twice", t.ID)
			continue
		}
		seen[t.ID] = true

		if t.Locale == "" {
			t.Locale = "en"
		}
		if t.MatchingMode == "" {
			t.MatchingMode = MatchingAI
		}
		if t.MatchingMode != MatchingAI && t.MatchingMode != MatchingRubric {
			res.addErr("tenant %q: matching-mode must be %q or %q", t.ID, MatchingAI, MatchingRubric)
		}

		switch t.Reviewer.Transport {
		case "":
			t.Reviewer.Transport = dispatch.TransportLog
			res.addWarn("tenant %q has no reviewer; summaries will only be logged", t.ID)
		case dispatch.TransportLog:
		case dispatch.TransportRedis, dispatch.TransportWebhook:
			if strings.TrimSpace(t.Reviewer.Address) == "" {
				res.addErr("tenant %q: reviewer.address is required for %s", t.ID, t.Reviewer.Transport)
			}
		default:
			res.addErr("tenant %q: unknown reviewer transport %q", t.ID, t.Reviewer.Transport)
		}

		if len(known) > 0 && t.JobSource != "" && !known[t.JobSource] {
			res.addErr("tenant %q: unknown job-source %q", t.ID, t.JobSource)
		}
		out = append(out, t)
	}

	if !seen[DefaultID] {
		out = append(out, Tenant{
			ID:           DefaultID,
			Locale:       "en",
			MatchingMode: MatchingAI,
			Reviewer:     dispatch.Reviewer{Transport: dispatch.TransportLog},
		})
	}
	return out, res
}

// Registry looks tenants up by id.
type Registry struct {
	tenants map[string]Tenant
}

// NewRegistry indexes list, which should come from NormalizeAndValidate.
func NewRegistry(list []Tenant) *Registry {
	r := &Registry{tenants: make(map[string]Tenant, len(list))}
	for _, t := range list {
		r.tenants[t.ID] = t
	}
	return r
}

// Get returns the tenant with id; an empty id is the default tenant.
func (r *Registry) Get(id string) (Tenant, bool) {
	if id == "" {
		id = DefaultID
	}
	t, ok := r.tenants[id]
	return t, ok
}

// IDs lists the configured tenant ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
