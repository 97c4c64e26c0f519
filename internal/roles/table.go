// Package roles maps target job roles to the keywords a matching resume
// should contain, and lists the roles offered to users.
package roles

import (
	"strings"

	"skillmatch/internal/types"
)

// Role is a target role with its display data and target keywords
type Role struct {
	ID       string
	Name     string
	Icon     string
	Keywords []string
}

// builtinRoles is the default table. Roles without keywords are listed in
// the catalog but always score zero.
var builtinRoles = []Role{
	{
		ID:   "ev_engineer",
		Name: "EV Engineer",
		Icon: "⚡",
		Keywords: []string{
			"matlab", "simulink", "solidworks", "ansys", "catia",
			"electric vehicle", "battery", "bms", "powertrain",
			"cfd", "cad", "python", "c++", "control systems",
			"motor design", "thermal management",
		},
	},
	{
		ID:   "data_scientist",
		Name: "Data Scientist",
		Icon: "📊",
		Keywords: []string{
			"python", "r", "sql", "machine learning", "deep learning",
			"tensorflow", "pytorch", "pandas", "numpy", "scikit-learn",
			"statistics", "data visualization", "tableau", "powerbi",
		},
	},
	{
		ID:   "full_stack",
		Name: "Full Stack Developer",
		Icon: "💻",
		Keywords: []string{
			"javascript", "react", "node", "express", "mongodb",
			"postgresql", "html", "css", "typescript", "docker",
			"aws", "git", "rest api", "graphql",
		},
	},
	{
		ID:   "ml_engineer",
		Name: "ML Engineer",
		Icon: "🤖",
		Keywords: []string{
			"python", "tensorflow", "pytorch", "mlops", "docker",
			"kubernetes", "aws", "gcp", "huggingface", "transformer",
			"computer vision", "nlp", "reinforcement learning",
		},
	},
	{
		ID:   "cybersecurity",
		Name: "Cybersecurity",
		Icon: "🔒",
		Keywords: []string{
			"python", "linux", "wireshark", "metasploit", "burp suite",
			"network security", "penetration testing", "siem", "soc",
			"firewall", "encryption", "cryptography",
		},
	},
	{ID: "product_manager", Name: "Product Manager", Icon: "🎯"},
	{ID: "ux_designer", Name: "UX Designer", Icon: "🎨"},
	{ID: "devops", Name: "DevOps Engineer", Icon: "⚙️"},
}

// Table is an immutable role lookup. It is safe for concurrent use.
type Table struct {
	order []string
	roles map[string]Role
}

var defaultTable = newTable(builtinRoles)

// Default returns the built-in role table
func Default() *Table {
	return defaultTable
}

// TargetKeywords looks up a role in the built-in table
func TargetKeywords(role string) []string {
	return defaultTable.TargetKeywords(role)
}

func newTable(list []Role) *Table {
	t := &Table{
		order: make([]string, 0, len(list)),
		roles: make(map[string]Role, len(list)),
	}
	for _, r := range list {
		t.put(r)
	}
	return t
}

// put inserts or replaces a role, keeping first-seen catalog order
func (t *Table) put(r Role) {
	id := normalizeID(r.ID)
	if _, exists := t.roles[id]; !exists {
		t.order = append(t.order, id)
	}
	r.ID = id
	r.Keywords = normalizeKeywords(r.Keywords)
	t.roles[id] = r
}

// TargetKeywords returns the role's target keywords. The lookup ignores case;
// an unknown role yields an empty list.
func (t *Table) TargetKeywords(role string) []string {
	r, ok := t.roles[normalizeID(role)]
	if !ok {
		return []string{}
	}
	out := make([]string, len(r.Keywords))
	copy(out, r.Keywords)
	return out
}

// Has reports whether the role is known
func (t *Table) Has(role string) bool {
	_, ok := t.roles[normalizeID(role)]
	return ok
}

// Catalog lists the roles in display order
func (t *Table) Catalog() []types.RoleInfo {
	out := make([]types.RoleInfo, 0, len(t.order))
	for _, id := range t.order {
		r := t.roles[id]
		out = append(out, types.RoleInfo{ID: r.ID, Name: r.Name, Icon: r.Icon})
	}
	return out
}

// Len returns the number of roles
func (t *Table) Len() int {
	return len(t.order)
}

func normalizeID(id string) string {
	return strings.ToLower(id)
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
