// Package colors implements the color-role prerequisite engine.
//
// Color roles are organized into mutually exclusive categories. Each
// role carries a set of direct prerequisite roles and an optional
// single-parent inheritance link; a role's effective prerequisite set
// is the union of its own prerequisites with everything resolved
// through its ancestor chain. The engine is pure: it computes
// eligibility and demotion decisions, and the caller applies them.
package colors

// Role is one configured color role within a category.
type Role struct {
	RoleID string `json:"role_id"`
	Name   string `json:"name"`
	// Prerequisites are the role's own (direct) prerequisite role IDs.
	Prerequisites []string `json:"prerequisites,omitempty"`
	// InheritsFrom is the single parent whose resolved prerequisite
	// set this role also inherits. Empty means no parent.
	InheritsFrom string `json:"inherits_from,omitempty"`
}

// Category is an ordered group of color roles. A user holds at most
// one color role across all categories combined; the assignment path
// enforces that, not the resolver.
type Category struct {
	Name  string `json:"name"`
	Roles []Role `json:"roles"`
}

// Config is the per-guild color role configuration.
type Config struct {
	Categories []Category `json:"categories"`
}

// Clone returns a deep copy of the configuration, detached from every
// slice in the receiver.
func (c Config) Clone() Config {
	if len(c.Categories) == 0 {
		return Config{}
	}
	out := Config{Categories: make([]Category, len(c.Categories))}
	for i, cat := range c.Categories {
		copied := cat
		copied.Roles = make([]Role, len(cat.Roles))
		for j, role := range cat.Roles {
			r := role
			r.Prerequisites = append([]string(nil), role.Prerequisites...)
			copied.Roles[j] = r
		}
		out.Categories[i] = copied
	}
	return out
}

// Find locates a role by ID across all categories.
func (c Config) Find(roleID string) (Role, bool) {
	for _, cat := range c.Categories {
		for _, role := range cat.Roles {
			if role.RoleID == roleID {
				return role, true
			}
		}
	}
	return Role{}, false
}

// AllRoleIDs returns every configured color role ID.
func (c Config) AllRoleIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, cat := range c.Categories {
		for _, role := range cat.Roles {
			ids[role.RoleID] = struct{}{}
		}
	}
	return ids
}

// CurrentColorRole returns the first managed color role the user
// holds, scanning the held roles in order.
func (c Config) CurrentColorRole(held []string) (string, bool) {
	ids := c.AllRoleIDs()
	for _, id := range held {
		if _, ok := ids[id]; ok {
			return id, true
		}
	}
	return "", false
}

// Eligible describes one color role a user currently qualifies for.
type Eligible struct {
	Category      string
	RoleID        string
	Name          string
	Prerequisites map[string]struct{}
}

// Action is the outcome of a member-update evaluation.
type Action int

const (
	// ActionNone: the user holds no color role, nothing to do.
	ActionNone Action = iota
	// ActionKeep: the user still qualifies for their color role.
	ActionKeep
	// ActionDemote: swap the current color role for DemoteTo.
	ActionDemote
	// ActionClear: remove the color role, nothing else qualifies.
	ActionClear
)

// Decision is the demotion plan produced by PlanMemberUpdate.
type Decision struct {
	Action   Action
	Current  string
	DemoteTo string
}
