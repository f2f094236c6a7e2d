package navigator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTreeIsValid(t *testing.T) {
	require.NoError(t, ValidateTree(DefaultTree()))
}

func TestFlattenPreOrder(t *testing.T) {
	flat := Flatten(DefaultTree(), true)

	index := make(map[string]int, len(flat))
	for i, tg := range flat {
		index[tg.ID] = i
		assert.Empty(t, tg.Children, "flattened entries carry no subtree")
	}

	// Each parent comes directly before its first child.
	assert.Equal(t, index["dashboard"]+1, index["executive-dashboard"])
	assert.Equal(t, index["costs"]+1, index["costs-daily"])
	assert.Equal(t, index["costs-daily"]+1, index["costs-optimization"])
	assert.Less(t, index["security"], index["security-scans"])
	assert.Less(t, index["credentials"], index["credentials-azure"])
}

func TestFlattenIsStable(t *testing.T) {
	first := Flatten(DefaultTree(), true)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Flatten(DefaultTree(), true))
	}
}

func TestFlattenAdminFilter(t *testing.T) {
	all := Flatten(DefaultTree(), true)
	regular := Flatten(DefaultTree(), false)
	assert.Len(t, all, 16)
	assert.Len(t, regular, 13)

	for _, tg := range regular {
		assert.False(t, tg.AdminOnly, "admin target %q leaked into regular sweep", tg.ID)
	}
}

func TestFlattenSkipsAdminSubtree(t *testing.T) {
	tree := []Target{
		{Name: "Admin", ID: "admin", Route: "/admin", AdminOnly: true,
			Children: []Target{
				{Name: "Audit Log", ID: "audit", Route: "/admin/audit"},
			}},
		{Name: "Home", ID: "home", Route: "/home"},
	}

	flat := Flatten(tree, false)
	require.Len(t, flat, 1)
	assert.Equal(t, "home", flat[0].ID)

	flat = Flatten(tree, true)
	require.Len(t, flat, 3)
	assert.Equal(t, []string{"admin", "audit", "home"}, []string{flat[0].ID, flat[1].ID, flat[2].ID})
}

func TestLoadTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	doc := `targets:
  - name: Dashboard
    route: /dashboard
    children:
      - name: Executive Dashboard
        route: /dashboard/executive
  - name: Admin Area
    id: admin-area
    route: /admin
    admin_only: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	targets, err := LoadTree(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "dashboard", targets[0].ID, "id is derived from the name when omitted")
	assert.Equal(t, "executive-dashboard", targets[0].Children[0].ID)
	assert.Equal(t, "admin-area", targets[1].ID)
	assert.True(t, targets[1].AdminOnly)
}

func TestLoadTreeErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		return path
	}

	_, err := LoadTree(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadTree(write("bad.yaml", "targets: [name: ["))
	assert.Error(t, err)

	_, err = LoadTree(write("empty.yaml", "targets: []\n"))
	assert.ErrorContains(t, err, "no targets")

	_, err = LoadTree(write("noroute.yaml", "targets:\n  - name: Dashboard\n"))
	assert.ErrorContains(t, err, "missing route")

	dup := `targets:
  - name: One
    id: same
    route: /one
  - name: Two
    id: same
    route: /two
`
	_, err = LoadTree(write("dup.yaml", dup))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = LoadTree(write("badid.yaml", "targets:\n  - name: X\n    id: 'Bad ID!'\n    route: /x\n"))
	assert.ErrorContains(t, err, "lowercase")
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Dashboard":           "dashboard",
		"Executive Dashboard": "executive-dashboard",
		"AWS  Credentials":    "aws-credentials",
		"Costs & Usage (v2)":  "costs-usage-v2",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in))
	}
}

func TestOnlySubset(t *testing.T) {
	flat := Flatten(DefaultTree(), false)

	kept, missing := Only(flat, nil)
	assert.Equal(t, flat, kept)
	assert.Empty(t, missing)

	kept, missing = Only(flat, []string{"costs-daily", "dashboard", "nope"})
	require.Len(t, kept, 2)
	// Sweep order wins over the order ids were given in.
	assert.Equal(t, "dashboard", kept[0].ID)
	assert.Equal(t, "costs-daily", kept[1].ID)
	assert.Equal(t, []string{"nope"}, missing)
}
