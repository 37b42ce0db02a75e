package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func managedRules() []Rule {
	return []Rule{
		{Name: "Current Champion", RoleID: "champ", Method: MethodChampion, Threshold: 1},
		{Name: "Top10", RoleID: "top10", Method: MethodPlacement, Threshold: 10},
		{Name: "Champion500", RoleID: "c500", Method: MethodWave, Threshold: 500, League: "Champion"},
	}
}

func TestPlanReconciliation(t *testing.T) {
	rules := managedRules()

	tests := []struct {
		name       string
		current    []string
		winner     string
		verified   bool
		wantAdd    []string
		wantRemove []string
	}{
		{
			name:     "adds missing winning role",
			current:  []string{"unrelated"},
			winner:   "top10",
			verified: true,
			wantAdd:  []string{"top10"},
		},
		{
			name:       "swaps stale managed role for winner",
			current:    []string{"c500", "unrelated"},
			winner:     "top10",
			verified:   true,
			wantAdd:    []string{"top10"},
			wantRemove: []string{"c500"},
		},
		{
			name:     "already converged",
			current:  []string{"top10", "unrelated"},
			winner:   "top10",
			verified: true,
		},
		{
			name:       "no winner strips all managed roles",
			current:    []string{"champ", "top10", "unrelated"},
			winner:     "",
			verified:   true,
			wantRemove: []string{"champ", "top10"},
		},
		{
			name:       "unverified strips everything regardless of winner",
			current:    []string{"top10", "unrelated"},
			winner:     "top10",
			verified:   false,
			wantRemove: []string{"top10"},
		},
		{
			name:     "unmanaged roles are never touched",
			current:  []string{"unrelated", "alsounrelated"},
			winner:   "",
			verified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanReconciliation(tt.current, rules, tt.winner, tt.verified)
			assert.Equal(t, tt.wantAdd, plan.Add)
			assert.Equal(t, tt.wantRemove, plan.Remove)
		})
	}
}

func TestPlanReconciliationConverges(t *testing.T) {
	rules := managedRules()
	current := []string{"champ", "c500", "unrelated"}

	plan := PlanReconciliation(current, rules, "top10", true)
	assert.False(t, plan.Empty())

	// Apply the plan, then re-plan: the second pass must be a no-op.
	next := applyPlan(current, plan)
	again := PlanReconciliation(next, rules, "top10", true)
	assert.True(t, again.Empty())
}

func applyPlan(current []string, plan Plan) []string {
	removed := make(map[string]struct{}, len(plan.Remove))
	for _, id := range plan.Remove {
		removed[id] = struct{}{}
	}
	var next []string
	for _, id := range current {
		if _, ok := removed[id]; !ok {
			next = append(next, id)
		}
	}
	return append(next, plan.Add...)
}
