package scope

import (
	"path"
	"strings"
	"time"

	"github.com/vibex/vibectx/internal/discovery"
)

// Score weight tables. Weights are pinned by tests; changing one
// changes truncation order for every project.
var extensionWeights = map[string]int{
	".go":   40,
	".ts":   35,
	".tsx":  35,
	".py":   35,
	".rs":   35,
	".js":   30,
	".jsx":  30,
	".json": 30,
	".yaml": 30,
	".yml":  30,
	".toml": 30,
	".md":   25,
	".java": 25,
	".rb":   25,
	".txt":  15,
}

const (
	scoreMin = 0
	scoreMax = 1000
)

// Score computes the relevance priority of a discovered file at the
// given reference time. The result is deterministic in the file's
// metadata and clamped to [0, 1000].
func Score(f discovery.File, now time.Time) int {
	score := 50 - f.Depth*5
	score += extensionWeights[strings.ToLower(path.Ext(f.RelativePath))]
	score += sizeBand(f.Size)
	if f.Depth == 0 {
		score += 30
	}
	score += pathKeywordBonus(f.RelativePath)
	score += recencyBand(now.Sub(f.ModTime))

	if score < scoreMin {
		return scoreMin
	}
	if score > scoreMax {
		return scoreMax
	}
	return score
}

func sizeBand(size int64) int {
	switch {
	case size < 10*1024:
		return 20
	case size < 50*1024:
		return 10
	case size > 500*1024:
		return -20
	default:
		return 0
	}
}

func pathKeywordBonus(rel string) int {
	lower := "/" + strings.ToLower(rel)
	name := path.Base(lower)

	bonus := 0
	if strings.Contains(lower, "/src/") {
		bonus += 15
	}
	if strings.Contains(lower, "/lib/") {
		bonus += 10
	}
	if strings.Contains(lower, "/config/") {
		bonus += 25
	}
	if strings.Contains(lower, "/docs/") {
		bonus += 5
	}
	if strings.Contains(name, "readme") {
		bonus += 30
	}
	if discovery.IsManifestName(name) {
		bonus += 40
	}
	if discovery.IsTypeConfigName(name) {
		bonus += 35
	}
	if strings.Contains(name, "dockerfile") {
		bonus += 25
	}
	if strings.Contains(name, "license") {
		bonus += 15
	}
	if strings.Contains(name, "changelog") {
		bonus += 10
	}
	return bonus
}

func recencyBand(age time.Duration) int {
	switch {
	case age < 24*time.Hour:
		return 15
	case age < 7*24*time.Hour:
		return 10
	case age < 30*24*time.Hour:
		return 5
	default:
		return 0
	}
}
