package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/internal/testutils"
)

func TestDiffServiceDiff(t *testing.T) {
	svc := NewDiffService()
	d := svc.Diff("app.py", "a\nb\nc\n", "a\nB\nc\nd\n")

	assert.Equal(t, 2, d.Added)
	assert.Equal(t, 1, d.Removed)
	assert.Equal(t, "  a\n- b\n+ B\n  c\n+ d\n", d.String())
}

func TestDiffServiceCompare(t *testing.T) {
	root := testutils.CreateWorkspace(t, map[string]string{
		"src/app.py": "print('old')\n",
	})
	svc := NewDiffService()

	diffs, err := svc.Compare(root, map[string]string{
		"src/app.py": "print('new')\n",
		"README.md":  "# Codi\n",
	})
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	assert.Equal(t, "README.md", diffs[0].Path)
	assert.True(t, diffs[0].NewFile)
	assert.Equal(t, 1, diffs[0].Added)

	assert.Equal(t, "src/app.py", diffs[1].Path)
	assert.False(t, diffs[1].NewFile)
	assert.Equal(t, 1, diffs[1].Removed)

	_, err = svc.Compare(root, map[string]string{"../escape.txt": "x"})
	assert.ErrorContains(t, err, "outside the workspace")
}
