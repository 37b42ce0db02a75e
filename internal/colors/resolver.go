package colors

import "github.com/rs/zerolog"

// Resolver evaluates color-role prerequisites. Configuration arrives
// per call; the struct holds only a logger for anomaly warnings.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a resolver that reports inheritance anomalies on
// the given logger.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{log: log}
}

// ResolvePrerequisites returns the transitive prerequisite set for a
// role: its direct prerequisites unioned with the fully resolved set
// of its parent chain.
//
// The visited set is copied before each recursive step so one branch
// cannot contaminate another; a revisited role means an inheritance
// cycle, which contributes nothing further instead of recursing
// forever. A dangling role or parent reference likewise contributes
// nothing. Pass nil for visited at the top level.
func (r *Resolver) ResolvePrerequisites(roleID string, cfg Config, visited map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})

	if _, seen := visited[roleID]; seen {
		r.log.Warn().Str("role_id", roleID).Msg("inheritance cycle detected, stopping prerequisite resolution")
		return out
	}

	role, ok := cfg.Find(roleID)
	if !ok {
		return out
	}

	for _, p := range role.Prerequisites {
		out[p] = struct{}{}
	}

	if role.InheritsFrom != "" {
		next := make(map[string]struct{}, len(visited)+1)
		for id := range visited {
			next[id] = struct{}{}
		}
		next[roleID] = struct{}{}
		for p := range r.ResolvePrerequisites(role.InheritsFrom, cfg, next) {
			out[p] = struct{}{}
		}
	}
	return out
}

// UserQualifies reports whether the user's role set satisfies the
// role's resolved prerequisites. A role whose resolved set is empty is
// open to everyone: that is a deliberate no-gate policy.
func (r *Resolver) UserQualifies(userRoles map[string]struct{}, roleID string, cfg Config) bool {
	prereqs := r.ResolvePrerequisites(roleID, cfg, nil)
	if len(prereqs) == 0 {
		return true
	}
	for id := range prereqs {
		if _, ok := userRoles[id]; ok {
			return true
		}
	}
	return false
}

// EligibleRoles returns every configured color role the user qualifies
// for, in category then role order. One entry per role, no further
// deduplication.
func (r *Resolver) EligibleRoles(userRoles map[string]struct{}, cfg Config) []Eligible {
	var eligible []Eligible
	for _, cat := range cfg.Categories {
		for _, role := range cat.Roles {
			if !r.UserQualifies(userRoles, role.RoleID, cfg) {
				continue
			}
			eligible = append(eligible, Eligible{
				Category:      cat.Name,
				RoleID:        role.RoleID,
				Name:          role.Name,
				Prerequisites: r.ResolvePrerequisites(role.RoleID, cfg, nil),
			})
		}
	}
	return eligible
}

// InheritanceDepth counts hops along the parent chain: a parentless
// role has depth 1, an unknown role depth 0. Cycles are guarded the
// same way as prerequisite resolution.
func (r *Resolver) InheritanceDepth(roleID string, cfg Config) int {
	return r.inheritanceDepth(roleID, cfg, nil)
}

func (r *Resolver) inheritanceDepth(roleID string, cfg Config, visited map[string]struct{}) int {
	if _, seen := visited[roleID]; seen {
		r.log.Warn().Str("role_id", roleID).Msg("inheritance cycle detected, stopping depth walk")
		return 0
	}
	role, ok := cfg.Find(roleID)
	if !ok {
		return 0
	}
	if role.InheritsFrom == "" {
		return 1
	}
	next := make(map[string]struct{}, len(visited)+1)
	for id := range visited {
		next[id] = struct{}{}
	}
	next[roleID] = struct{}{}
	return 1 + r.inheritanceDepth(role.InheritsFrom, cfg, next)
}

// WouldCreateCycle reports whether pointing roleID's inheritance at
// parentID would close a loop. Used on the configuration path before
// an inheritance edge is written.
func WouldCreateCycle(roleID, parentID string, cfg Config) bool {
	visited := make(map[string]struct{})
	current := parentID
	for current != "" {
		if current == roleID {
			return true
		}
		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}

		role, ok := cfg.Find(current)
		if !ok {
			return false
		}
		current = role.InheritsFrom
	}
	return false
}

// PlanMemberUpdate evaluates a member's role set after it changed. If
// the member holds a color role they no longer qualify for, the plan
// demotes them to the still-qualifying role with the greatest
// inheritance depth, or clears the color role when nothing qualifies.
//
// The function is pure and idempotent; callers debounce the bursts of
// member-update events Discord emits for a single user action.
func (r *Resolver) PlanMemberUpdate(held []string, cfg Config) Decision {
	current, ok := cfg.CurrentColorRole(held)
	if !ok {
		return Decision{Action: ActionNone}
	}

	userRoles := make(map[string]struct{}, len(held))
	for _, id := range held {
		userRoles[id] = struct{}{}
	}

	if r.UserQualifies(userRoles, current, cfg) {
		return Decision{Action: ActionKeep, Current: current}
	}

	var best string
	maxDepth := 0
	for _, e := range r.EligibleRoles(userRoles, cfg) {
		if depth := r.InheritanceDepth(e.RoleID, cfg); depth > maxDepth {
			maxDepth = depth
			best = e.RoleID
		}
	}

	if best == "" {
		return Decision{Action: ActionClear, Current: current}
	}
	return Decision{Action: ActionDemote, Current: current, DemoteTo: best}
}
