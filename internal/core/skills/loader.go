// Package skills implements the Skill Cache: predefined action-template
// skills loaded at startup, learned skills persisted across runs, matching
// by a weighted score, and an executor that walks a skill's action
// sequence against the Actuators. Predefined skills are plain YAML rather
// than the teacher's markdown-with-frontmatter SKILL.md format — an
// action template has no prose prompt body to carry, so there's nothing
// for the markdown half of that format to hold.
package skills

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/agentcore/core/internal/core/types"
)

//go:embed predefined/*.yaml
var predefinedFS embed.FS

// skillFile mirrors types.Skill's YAML shape on disk.
type skillFile struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Pattern     types.SkillPattern     `yaml:"pattern"`
	Actions     []types.ActionTemplate `yaml:"actions"`
}

// LoadPredefined parses every embedded predefined skill definition.
func LoadPredefined() ([]*types.Skill, error) {
	entries, err := predefinedFS.ReadDir("predefined")
	if err != nil {
		return nil, fmt.Errorf("skills: read predefined dir: %w", err)
	}

	var out []*types.Skill
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := predefinedFS.ReadFile("predefined/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("skills: read %s: %w", entry.Name(), err)
		}

		var sf skillFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("skills: parse %s: %w", entry.Name(), err)
		}

		out = append(out, &types.Skill{
			ID:          sf.ID,
			Name:        sf.Name,
			Description: sf.Description,
			Pattern:     sf.Pattern,
			Actions:     sf.Actions,
			SuccessRate: 1.0,
			Predefined:  true,
		})
	}
	return out, nil
}
