package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cinnamon", "gnome", "plasma", "xfce"}, Names())
}

func TestLookup(t *testing.T) {
	env, ok := Lookup("plasma")
	require.True(t, ok)
	assert.Equal(t, "KDE Plasma", env.Label)
	assert.Equal(t, "sddm", env.DisplayManager)
	assert.Contains(t, env.Packages, "plasma")

	_, ok = Lookup("enlightenment")
	assert.False(t, ok)
}

func TestCatalogEntriesComplete(t *testing.T) {
	for _, name := range Names() {
		env, ok := Lookup(name)
		require.True(t, ok)
		assert.NotEmpty(t, env.Label, "%s needs a label", name)
		assert.NotEmpty(t, env.Packages, "%s needs packages", name)
		assert.NotEmpty(t, env.DisplayManager, "%s needs a display manager", name)
	}
}
