// Package matrix expands the job matrix: which images get built and
// which (image, environment) pairs get run. Expansion order is
// declaration order, so two runs of the same config always produce
// the same job sequence and the same summary layout.
package matrix

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/envmatrix/envmatrix/internal/config"
)

// Pair is one scheduled container run.
type Pair struct {
	// Seq is the pair's position in declaration order, used to
	// re-sort the summary after concurrent completion.
	Seq int

	// Image is the declared image name (not the tag).
	Image string

	// Env is the environment name, empty when the config declares no
	// environments and the image runs once with no variables.
	Env string

	// Vars are the environment's variables, without skip_images.
	Vars map[string]any
}

// Pairs expands images × environments, images outer, environments
// inner, both in declaration order. Pairs whose environment skips the
// image are excluded. With no environments declared every image runs
// once with an empty variable set.
func Pairs(cfg *config.Config) []Pair {
	var pairs []Pair
	seq := 0

	for _, image := range cfg.Images {
		if cfg.Environments.Len() == 0 {
			pairs = append(pairs, Pair{Seq: seq, Image: image, Vars: map[string]any{}})
			seq++
			continue
		}

		for _, env := range cfg.Environments.Names() {
			spec, _ := cfg.Environments.Get(env)
			if spec.Skips(image) {
				continue
			}
			pairs = append(pairs, Pair{Seq: seq, Image: image, Env: env, Vars: spec.Vars})
			seq++
		}
	}

	return pairs
}

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// ImageTag derives the local image tag for a build. The project name
// has non-alphanumeric runs collapsed to underscores; the whole tag is
// lowercased to satisfy the engine's tag grammar.
func ImageTag(project, image string) string {
	if project == "" {
		return strings.ToLower(image)
	}
	return strings.ToLower(nonAlnum.ReplaceAllString(project, "_") + "_" + image)
}

// ContainerName builds a unique container name for a pair. The random
// 6-digit suffix keeps names from colliding when the same matrix runs
// concurrently against one engine.
func ContainerName(image, env string) string {
	suffix := 100000 + rand.Intn(900000)
	if env == "" {
		return fmt.Sprintf("%s_%d", image, suffix)
	}
	return fmt.Sprintf("%s_%s_%d", image, env, suffix)
}
