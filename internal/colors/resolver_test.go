package colors

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *Resolver {
	return NewResolver(zerolog.Nop())
}

func roleSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// tierConfig builds a three-tier chain in one category: tier1 is open
// (no prerequisites, no parent), tier2 inherits tier1 and adds the
// member badge, tier3 inherits tier2 and adds the veteran badge.
func tierConfig() Config {
	return Config{Categories: []Category{{
		Name: "Reds",
		Roles: []Role{
			{RoleID: "tier1", Name: "Ember"},
			{RoleID: "tier2", Name: "Flame", Prerequisites: []string{"member-badge"}, InheritsFrom: "tier1"},
			{RoleID: "tier3", Name: "Inferno", Prerequisites: []string{"veteran-badge"}, InheritsFrom: "tier2"},
		},
	}}}
}

func TestResolvePrerequisitesTransitiveUnion(t *testing.T) {
	cfg := tierConfig()
	r := testResolver()

	// Ancestor prerequisites are unioned through every ancestor, not
	// just the immediate parent.
	prereqs := r.ResolvePrerequisites("tier3", cfg, nil)
	assert.Equal(t, roleSet("veteran-badge", "member-badge"), prereqs)

	prereqs = r.ResolvePrerequisites("tier2", cfg, nil)
	assert.Equal(t, roleSet("member-badge"), prereqs)

	prereqs = r.ResolvePrerequisites("tier1", cfg, nil)
	assert.Empty(t, prereqs)
}

func TestResolvePrerequisitesDanglingReferences(t *testing.T) {
	cfg := Config{Categories: []Category{{
		Name: "Blues",
		Roles: []Role{
			{RoleID: "wave", Name: "Wave", Prerequisites: []string{"badge"}, InheritsFrom: "ghost"},
		},
	}}}
	r := testResolver()

	// A dangling parent contributes nothing; an unknown role resolves
	// to an empty set. Neither is an error.
	assert.Equal(t, roleSet("badge"), r.ResolvePrerequisites("wave", cfg, nil))
	assert.Empty(t, r.ResolvePrerequisites("ghost", cfg, nil))
}

func TestResolvePrerequisitesCycleTerminates(t *testing.T) {
	cfg := Config{Categories: []Category{{
		Name: "Greens",
		Roles: []Role{
			{RoleID: "a", Name: "A", Prerequisites: []string{"pa"}, InheritsFrom: "b"},
			{RoleID: "b", Name: "B", Prerequisites: []string{"pb"}, InheritsFrom: "a"},
		},
	}}}
	r := testResolver()

	done := make(chan map[string]struct{}, 1)
	go func() {
		done <- r.ResolvePrerequisites("a", cfg, nil)
	}()

	select {
	case prereqs := <-done:
		// The cyclic branch degrades to a partial set instead of
		// recursing forever or panicking.
		assert.Equal(t, roleSet("pa", "pb"), prereqs)
	case <-time.After(2 * time.Second):
		t.Fatal("prerequisite resolution did not terminate on a cyclic inheritance graph")
	}

	// Depth walks are guarded the same way.
	depthDone := make(chan int, 1)
	go func() {
		depthDone <- r.InheritanceDepth("a", cfg)
	}()
	select {
	case depth := <-depthDone:
		assert.Equal(t, 2, depth)
	case <-time.After(2 * time.Second):
		t.Fatal("inheritance depth walk did not terminate on a cyclic graph")
	}
}

func TestUserQualifiesOpenRolePolicy(t *testing.T) {
	cfg := tierConfig()
	r := testResolver()

	// tier1 has an empty resolved set: open to everyone, including a
	// user with no roles at all.
	assert.True(t, r.UserQualifies(roleSet(), "tier1", cfg))
	assert.True(t, r.UserQualifies(roleSet("anything"), "tier1", cfg))

	// Gated roles need an intersection.
	assert.False(t, r.UserQualifies(roleSet(), "tier2", cfg))
	assert.True(t, r.UserQualifies(roleSet("member-badge"), "tier2", cfg))

	// Any one prerequisite from the resolved set suffices.
	assert.True(t, r.UserQualifies(roleSet("member-badge"), "tier3", cfg))
	assert.True(t, r.UserQualifies(roleSet("veteran-badge"), "tier3", cfg))
}

func TestEligibleRoles(t *testing.T) {
	cfg := tierConfig()
	r := testResolver()

	eligible := r.EligibleRoles(roleSet("member-badge"), cfg)
	require.Len(t, eligible, 3)
	assert.Equal(t, "tier1", eligible[0].RoleID)
	assert.Equal(t, "tier2", eligible[1].RoleID)
	assert.Equal(t, "tier3", eligible[2].RoleID)
	assert.Equal(t, "Reds", eligible[0].Category)

	eligible = r.EligibleRoles(roleSet(), cfg)
	require.Len(t, eligible, 1, "only the open role remains without badges")
	assert.Equal(t, "tier1", eligible[0].RoleID)
}

func TestInheritanceDepth(t *testing.T) {
	cfg := tierConfig()
	r := testResolver()

	assert.Equal(t, 1, r.InheritanceDepth("tier1", cfg))
	assert.Equal(t, 2, r.InheritanceDepth("tier2", cfg))
	assert.Equal(t, 3, r.InheritanceDepth("tier3", cfg))
	assert.Equal(t, 0, r.InheritanceDepth("unknown", cfg))
}

func TestWouldCreateCycle(t *testing.T) {
	cfg := tierConfig()

	assert.True(t, WouldCreateCycle("tier1", "tier3", cfg), "tier1 <- tier3 closes the chain")
	assert.True(t, WouldCreateCycle("tier2", "tier2", cfg), "self-inheritance is a cycle")
	assert.False(t, WouldCreateCycle("tier3", "tier1", cfg), "re-pointing down the chain is fine")
	assert.False(t, WouldCreateCycle("tier2", "ghost", cfg), "dangling parent ends the walk")
}

func TestPlanMemberUpdate(t *testing.T) {
	cfg := tierConfig()
	r := testResolver()

	t.Run("no color role held", func(t *testing.T) {
		d := r.PlanMemberUpdate([]string{"member-badge"}, cfg)
		assert.Equal(t, ActionNone, d.Action)
	})

	t.Run("still qualified keeps role", func(t *testing.T) {
		d := r.PlanMemberUpdate([]string{"tier3", "member-badge"}, cfg)
		assert.Equal(t, ActionKeep, d.Action)
		assert.Equal(t, "tier3", d.Current)
	})

	t.Run("demotes to deepest still-qualifying tier", func(t *testing.T) {
		// Lost every badge: tier3 and tier2 no longer qualify, the
		// open base tier does. Demote, never clear outright.
		d := r.PlanMemberUpdate([]string{"tier3"}, cfg)
		assert.Equal(t, ActionDemote, d.Action)
		assert.Equal(t, "tier3", d.Current)
		assert.Equal(t, "tier1", d.DemoteTo)
	})

	t.Run("clears when nothing qualifies", func(t *testing.T) {
		cfg := Config{Categories: []Category{{
			Name: "Golds",
			Roles: []Role{
				{RoleID: "gilded", Name: "Gilded", Prerequisites: []string{"gold-badge"}},
			},
		}}}
		d := r.PlanMemberUpdate([]string{"gilded"}, cfg)
		assert.Equal(t, ActionClear, d.Action)
		assert.Equal(t, "gilded", d.Current)
	})

	t.Run("idempotent under repeated evaluation", func(t *testing.T) {
		held := []string{"tier3"}
		first := r.PlanMemberUpdate(held, cfg)
		second := r.PlanMemberUpdate(held, cfg)
		assert.Equal(t, first, second)

		// After applying the demotion the next evaluation keeps.
		d := r.PlanMemberUpdate([]string{"tier1"}, cfg)
		assert.Equal(t, ActionKeep, d.Action)
	})
}
