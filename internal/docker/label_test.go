package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLabels(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	labels := BuildLabels("black", "/home/dev/octodns-bunny", started)

	assert.Equal(t, map[string]string{
		"pyfmt.managed-by": "pyfmt",
		"pyfmt.formatter":  "black",
		"pyfmt.root":       "/home/dev/octodns-bunny",
		"pyfmt.started-at": "2026-03-01T01:30:00Z",
	}, labels)
}

func TestParseLabels(t *testing.T) {
	started := time.Date(2026, 3, 1, 1, 30, 0, 0, time.UTC)

	info, err := ParseLabels(BuildLabels("isort", "/repo", started))
	require.NoError(t, err)
	assert.Equal(t, "isort", info.Formatter)
	assert.Equal(t, "/repo", info.Root)
	assert.True(t, started.Equal(info.StartedAt))
}

func TestParseLabels_Errors(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
	}{
		{name: "no labels", labels: nil},
		{name: "other tool", labels: map[string]string{LabelManagedBy: "compose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabels(tt.labels)
			assert.Error(t, err)
		})
	}
}

func TestParseLabels_BadTimestamp(t *testing.T) {
	info, err := ParseLabels(map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelStartedAt: "yesterday",
	})
	require.NoError(t, err)
	assert.True(t, info.StartedAt.IsZero())
}

func TestManagedFilter(t *testing.T) {
	all := managedFilter("")
	assert.Equal(t, []string{"pyfmt.managed-by=pyfmt"}, all.Get("label"))

	scoped := managedFilter("/repo")
	assert.ElementsMatch(t, []string{"pyfmt.managed-by=pyfmt", "pyfmt.root=/repo"}, scoped.Get("label"))
}
