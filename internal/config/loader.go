package config

import (
	"fmt"
	"os"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/internal/llm"

	"gopkg.in/yaml.v3"
)

// PromptsFile represents the structure of a prompts.yaml override file
type PromptsFile struct {
	Prompts struct {
		Summarizer llm.Prompt `yaml:"summarizer"`
		Planner    llm.Prompt `yaml:"planner"`
		Coder      llm.Prompt `yaml:"coder"`
		Debugger   llm.Prompt `yaml:"debugger"`
	} `yaml:"prompts"`
}

// LoadPromptsFile loads prompt overrides from a YAML file
func LoadPromptsFile(filepath string) (*PromptsFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading prompts file: %w", err)
	}

	var file PromptsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	return &file, nil
}

// Overrides returns the prompts of the file keyed by role
func (f *PromptsFile) Overrides() map[core.Role]llm.Prompt {
	return map[core.Role]llm.Prompt{
		core.RoleSummarizer: f.Prompts.Summarizer,
		core.RolePlanner:    f.Prompts.Planner,
		core.RoleCoder:      f.Prompts.Coder,
		core.RoleDebugger:   f.Prompts.Debugger,
	}
}

// BuildPrompts returns the built-in prompts, overridden by the file at path when path is set
func BuildPrompts(path string) (map[core.Role]llm.Prompt, error) {
	prompts := llm.DefaultPrompts()
	if path == "" {
		return prompts, nil
	}
	file, err := LoadPromptsFile(path)
	if err != nil {
		return nil, err
	}
	return llm.MergePrompts(prompts, file.Overrides()), nil
}
