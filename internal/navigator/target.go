package navigator

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one entry in the navigation tree. Children are swept right after
// their parent, so the flattened order mirrors a person walking the sidebar
// top to bottom, expanding each section in place.
type Target struct {
	Name      string   `yaml:"name" json:"name"`
	ID        string   `yaml:"id,omitempty" json:"id"`
	Route     string   `yaml:"route" json:"route"`
	AdminOnly bool     `yaml:"admin_only,omitempty" json:"adminOnly,omitempty"`
	Children  []Target `yaml:"children,omitempty" json:"children,omitempty"`
}

// DefaultTree mirrors the application sidebar. The last three sections only
// render for administrators.
func DefaultTree() []Target {
	return []Target{
		{
			Name: "Dashboard", ID: "dashboard", Route: "/dashboard",
			Children: []Target{
				{Name: "Executive Dashboard", ID: "executive-dashboard", Route: "/dashboard/executive"},
			},
		},
		{
			Name: "Costs", ID: "costs", Route: "/costs",
			Children: []Target{
				{Name: "Daily Costs", ID: "costs-daily", Route: "/costs/daily"},
				{Name: "Cost Optimization", ID: "costs-optimization", Route: "/costs/optimization"},
			},
		},
		{
			Name: "Security", ID: "security", Route: "/security",
			Children: []Target{
				{Name: "Security Scans", ID: "security-scans", Route: "/security/scans"},
				{Name: "Compliance", ID: "compliance", Route: "/security/compliance"},
			},
		},
		{
			Name: "Cloud Credentials", ID: "credentials", Route: "/credentials",
			Children: []Target{
				{Name: "AWS Credentials", ID: "credentials-aws", Route: "/credentials/aws"},
				{Name: "Azure Credentials", ID: "credentials-azure", Route: "/credentials/azure"},
			},
		},
		{
			Name: "Settings", ID: "settings", Route: "/settings",
			Children: []Target{
				{Name: "Security Settings", ID: "settings-security", Route: "/settings/security"},
			},
		},
		{Name: "Organizations", ID: "organizations", Route: "/organizations", AdminOnly: true},
		{Name: "Users", ID: "users", Route: "/users", AdminOnly: true},
		{Name: "Licenses", ID: "licenses", Route: "/licenses", AdminOnly: true},
	}
}

// LoadTree reads a target tree from a YAML file shaped like:
//
//	targets:
//	  - name: Dashboard
//	    route: /dashboard
//	    children: ...
//
// Missing ids are derived from names; the result is validated before use.
func LoadTree(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	var doc struct {
		Targets []Target `yaml:"targets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	if len(doc.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s defines no targets", path)
	}
	fillIDs(doc.Targets)
	if err := ValidateTree(doc.Targets); err != nil {
		return nil, fmt.Errorf("targets file %s: %w", path, err)
	}
	return doc.Targets, nil
}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateTree checks that every target has a name and a route and that ids
// are filename-safe and unique across the whole tree.
func ValidateTree(targets []Target) error {
	seen := make(map[string]bool)
	return validate(targets, seen)
}

func validate(targets []Target, seen map[string]bool) error {
	for _, t := range targets {
		if t.Name == "" {
			return fmt.Errorf("target with route %q: missing name", t.Route)
		}
		if t.Route == "" {
			return fmt.Errorf("target %q: missing route", t.Name)
		}
		if t.ID == "" {
			return fmt.Errorf("target %q: missing id", t.Name)
		}
		if !idPattern.MatchString(t.ID) {
			return fmt.Errorf("target %q: id %q must be lowercase letters, digits, and dashes", t.Name, t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("target %q: duplicate id %q", t.Name, t.ID)
		}
		seen[t.ID] = true
		if err := validate(t.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

func fillIDs(targets []Target) {
	for i := range targets {
		if targets[i].ID == "" {
			targets[i].ID = slugify(targets[i].Name)
		}
		fillIDs(targets[i].Children)
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Flatten returns the sweep order: pre-order traversal, each parent directly
// before its children. Skipping an admin-only node skips its whole subtree,
// matching how the sidebar hides admin sections from regular viewers.
func Flatten(targets []Target, includeAdmin bool) []Target {
	var out []Target
	for _, t := range targets {
		if t.AdminOnly && !includeAdmin {
			continue
		}
		node := t
		node.Children = nil
		out = append(out, node)
		out = append(out, Flatten(t.Children, includeAdmin)...)
	}
	return out
}

// Only filters a flattened list down to the given ids, preserving sweep
// order, and reports ids that matched nothing.
func Only(flat []Target, ids []string) (kept []Target, missing []string) {
	if len(ids) == 0 {
		return flat, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, t := range flat {
		if want[t.ID] {
			kept = append(kept, t)
			delete(want, t.ID)
		}
	}
	for _, id := range ids {
		if want[id] {
			missing = append(missing, id)
		}
	}
	return kept, missing
}
