package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesStarterProject(t *testing.T) {
	dir := t.TempDir()

	written, err := Write(dir)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	for _, name := range []string{
		"envmatrix.yml",
		filepath.Join("dockerfiles", "Dockerfile_bionic"),
		filepath.Join("dockerfiles", "entrypoint.sh"),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// The entrypoint must be executable.
	info, err := os.Stat(filepath.Join(dir, "dockerfiles", "entrypoint.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111)
}

func TestWrittenConfigLoads(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, "envmatrix.yml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bionic"}, cfg.Images)
	assert.Equal(t, filepath.Join(dir, "dockerfiles"), cfg.ImagePath)

	// The scaffold's Dockerfile naming must satisfy the resolver.
	files, err := cfg.ResolveDockerfiles()
	require.NoError(t, err)
	assert.Contains(t, files["bionic"], "Dockerfile_bionic")
}

func TestWriteRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "envmatrix.yml"), []byte("x"), 0644))

	_, err := Write(dir)
	assert.Error(t, err)
}

func TestEntrypointContract(t *testing.T) {
	data, err := templatesFS.ReadFile("templates/dockerfiles/entrypoint.sh")
	require.NoError(t, err)

	script := string(data)
	assert.Contains(t, script, "override_variable")
	assert.Contains(t, script, "ansible-lint")
	assert.Contains(t, script, "--syntax-check")
	assert.Contains(t, script, "changed=0.*failed=0")
}
