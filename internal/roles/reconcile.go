package roles

// Plan is a desired-state reconciliation of a member's managed
// tournament roles: the roles to add and the roles to remove. Applying
// a plan and re-planning with the resulting role set yields an empty
// plan, so repeated runs converge.
type Plan struct {
	Add    []string
	Remove []string
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// PlanReconciliation diffs the member's current roles against the one
// role they should hold. An unverified member has every managed role
// removed regardless of what the resolver decided; the resolver need
// not even run for them.
func PlanReconciliation(current []string, rules []Rule, winner string, verified bool) Plan {
	managed := ManagedRoleIDs(rules)

	var plan Plan
	if !verified {
		winner = ""
	}

	held := make(map[string]struct{}, len(current))
	for _, id := range current {
		held[id] = struct{}{}
		if _, ok := managed[id]; ok && id != winner {
			plan.Remove = append(plan.Remove, id)
		}
	}

	if winner != "" {
		if _, ok := held[winner]; !ok {
			plan.Add = append(plan.Add, winner)
		}
	}
	return plan
}
