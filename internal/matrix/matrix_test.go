package matrix

import (
	"regexp"
	"testing"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml), t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestPairsCrossProduct(t *testing.T) {
	cfg := parseConfig(t, `
docker_image_build_args: {}
docker_image_path: /tmp
docker_images: [xenial, bionic]
docker_container_environments:
  default:
    override_variable: a
  extra:
    override_variable: b
`)

	pairs := Pairs(cfg)
	require.Len(t, pairs, 4)

	var got [][2]string
	for i, p := range pairs {
		assert.Equal(t, i, p.Seq)
		got = append(got, [2]string{p.Image, p.Env})
	}
	assert.Equal(t, [][2]string{
		{"xenial", "default"},
		{"xenial", "extra"},
		{"bionic", "default"},
		{"bionic", "extra"},
	}, got)
}

func TestPairsSkipRule(t *testing.T) {
	cfg := parseConfig(t, `
docker_image_build_args: {}
docker_image_path: /tmp
docker_images: [xenial, bionic]
docker_container_environments:
  default:
    override_variable: a
  legacy:
    override_variable: b
    skip_images: [bionic]
`)

	pairs := Pairs(cfg)

	// 2 images x 2 environments with one skip rule yields 3 pairs.
	require.Len(t, pairs, 3)
	for _, p := range pairs {
		assert.False(t, p.Image == "bionic" && p.Env == "legacy")
		assert.NotContains(t, p.Vars, "skip_images")
	}

	// Seq stays dense after skips so summary ordering has no holes.
	for i, p := range pairs {
		assert.Equal(t, i, p.Seq)
	}
}

func TestPairsNoEnvironments(t *testing.T) {
	cfg := parseConfig(t, `
docker_image_build_args: {}
docker_image_path: /tmp
docker_images: [xenial, bionic]
`)

	pairs := Pairs(cfg)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Empty(t, p.Env)
		assert.Empty(t, p.Vars)
	}
}

func TestImageTag(t *testing.T) {
	tests := []struct {
		name    string
		project string
		image   string
		want    string
	}{
		{name: "no project", project: "", image: "Xenial", want: "xenial"},
		{name: "plain project", project: "sssd", image: "xenial", want: "sssd_xenial"},
		{name: "sanitized project", project: "Ansible - SSSD!", image: "bionic", want: "ansible_sssd__bionic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageTag(tt.project, tt.image))
		})
	}
}

func TestContainerName(t *testing.T) {
	withEnv := regexp.MustCompile(`^xenial_default_[1-9]\d{5}$`)
	assert.Regexp(t, withEnv, ContainerName("xenial", "default"))

	withoutEnv := regexp.MustCompile(`^xenial_[1-9]\d{5}$`)
	assert.Regexp(t, withoutEnv, ContainerName("xenial", ""))
}
