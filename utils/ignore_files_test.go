package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored("node_modules/react/index.js"))
	assert.True(t, IsDefaultIgnored("src/vendor/lib.js"))
	assert.True(t, IsDefaultIgnored(".git/HEAD"))
	assert.True(t, IsDefaultIgnored("__pycache__/module.pyc"))
	assert.True(t, IsDefaultIgnored("dist"))
	assert.True(t, IsDefaultIgnored("app/bundle.min.js"))
	assert.True(t, IsDefaultIgnored("yarn.lock"))

	assert.False(t, IsDefaultIgnored("src/app.js"))
	assert.False(t, IsDefaultIgnored("src/distribution.js"))
	assert.False(t, IsDefaultIgnored("src/minified-notes.md"))
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"*.generated.js", "fixtures/", "secret.env"}

	assert.True(t, IsIgnored("src/api.generated.js", patterns))
	assert.True(t, IsIgnored("fixtures/sample.js", patterns))
	assert.True(t, IsIgnored("config/secret.env", patterns))

	assert.False(t, IsIgnored("src/api.js", patterns))
	assert.False(t, IsIgnored("myfixtures/sample.js", patterns))
	assert.False(t, IsIgnored("src/app.js", nil))
}

func TestGetIgnorePatterns_MissingFile(t *testing.T) {
	patterns, err := GetIgnorePatterns(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestGetIgnorePatterns_ParsesAndSkipsComments(t *testing.T) {
	root := t.TempDir()
	content := "# generated output\n*.generated.js\n\nfixtures/\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".reposcope-ignore"), []byte(content), 0644))

	patterns, err := GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.generated.js", "fixtures/"}, patterns)
}

func TestGetIgnorePatterns_CacheInvalidatedByModTime(t *testing.T) {
	root := t.TempDir()
	ignorePath := filepath.Join(root, ".reposcope-ignore")
	require.NoError(t, os.WriteFile(ignorePath, []byte("first/\n"), 0644))

	patterns, err := GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"first/"}, patterns)

	require.NoError(t, os.WriteFile(ignorePath, []byte("second/\n"), 0644))
	future := time.Now().Add(10 * time.Second)
	require.NoError(t, os.Chtimes(ignorePath, future, future))

	patterns, err = GetIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"second/"}, patterns)

	ClearIgnoreCache()
}
