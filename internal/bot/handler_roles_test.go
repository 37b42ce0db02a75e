package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/towerbot/internal/roles"
)

func TestRuleName(t *testing.T) {
	hierarchy := roles.DefaultHierarchy()

	tests := []struct {
		name      string
		method    roles.Method
		threshold int
		league    string
		want      string
	}{
		{"champion ignores threshold and league", roles.MethodChampion, 1, "", "Champion"},
		{"placement without league", roles.MethodPlacement, 10, "", "Top10"},
		{"placement in top league collapses", roles.MethodPlacement, 100, "Legend", "Top100"},
		{"placement in lower league keeps league", roles.MethodPlacement, 25, "Platinum", "Platinum Top25"},
		{"wave includes league and threshold", roles.MethodWave, 1000, "Champion", "Champion 1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ruleName(tt.method, tt.threshold, tt.league, hierarchy))
		})
	}
}
