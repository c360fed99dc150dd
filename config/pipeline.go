package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Valid strategy names accepted in pipeline configuration.
const (
	StrategyDefault       = "default"
	StrategyCompact       = "compact"
	StrategyTreeSummarize = "tree_summarize"
	StrategyNoText        = "no_text"
	StrategyAccumulate    = "accumulate"
)

// PostprocessorConfig configures one entry of the postprocessor chain.
// Type selects the implementation; the remaining fields apply to the
// matching type only.
type PostprocessorConfig struct {
	Type string `yaml:"type"` // keyword | similarity | neighbors

	RequiredKeywords []string `yaml:"required_keywords,omitempty"`
	ExcludeKeywords  []string `yaml:"exclude_keywords,omitempty"`

	SimilarityCutoff float64 `yaml:"similarity_cutoff,omitempty"`

	Relationships []string `yaml:"relationships,omitempty"`
}

// Pipeline is the caller-facing query pipeline configuration, usually read
// from a YAML file next to the binary.
type Pipeline struct {
	Strategy       string                `yaml:"strategy"`
	PromptBudget   int                   `yaml:"prompt_budget"`
	SimilarityTopK int                   `yaml:"similarity_top_k"`
	Separator      string                `yaml:"separator"`
	Concurrency    int                   `yaml:"concurrency"`
	Postprocessors []PostprocessorConfig `yaml:"postprocessors"`
}

// DefaultPipeline returns the configuration used when no pipeline file
// exists.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Strategy:       StrategyCompact,
		PromptBudget:   3000,
		SimilarityTopK: 5,
		Separator:      "\n\n---\n\n",
		Concurrency:    4,
	}
}

// LoadPipeline reads a pipeline configuration from path. A missing file is
// not an error; defaults are returned instead.
func LoadPipeline(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPipeline(), nil
		}
		return Pipeline{}, fmt.Errorf("read pipeline config: %w", err)
	}

	p := DefaultPipeline()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline config: %w", err)
	}
	applyPipelineDefaults(&p)
	return p, nil
}

// Validate checks the pipeline configuration eagerly, before any retrieval
// or provider I/O.
func (p Pipeline) Validate() error {
	switch p.Strategy {
	case StrategyDefault, StrategyCompact, StrategyTreeSummarize, StrategyNoText, StrategyAccumulate:
	default:
		return &Error{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", p.Strategy)}
	}
	if p.PromptBudget <= 0 {
		return &Error{Field: "prompt_budget", Reason: "must be positive"}
	}
	if p.SimilarityTopK <= 0 {
		return &Error{Field: "similarity_top_k", Reason: "must be positive"}
	}
	if p.Concurrency <= 0 {
		return &Error{Field: "concurrency", Reason: "must be positive"}
	}
	for i, pp := range p.Postprocessors {
		switch pp.Type {
		case "keyword":
			if len(pp.RequiredKeywords) == 0 && len(pp.ExcludeKeywords) == 0 {
				return &Error{
					Field:  fmt.Sprintf("postprocessors[%d]", i),
					Reason: "keyword postprocessor needs required_keywords or exclude_keywords",
				}
			}
		case "similarity":
			if pp.SimilarityCutoff < 0 || pp.SimilarityCutoff > 1 {
				return &Error{
					Field:  fmt.Sprintf("postprocessors[%d].similarity_cutoff", i),
					Reason: "must be in [0,1]",
				}
			}
		case "neighbors":
		default:
			return &Error{
				Field:  fmt.Sprintf("postprocessors[%d].type", i),
				Reason: fmt.Sprintf("unknown postprocessor %q", pp.Type),
			}
		}
	}
	return nil
}

func applyPipelineDefaults(p *Pipeline) {
	def := DefaultPipeline()
	if p.Strategy == "" {
		p.Strategy = def.Strategy
	}
	if p.PromptBudget == 0 {
		p.PromptBudget = def.PromptBudget
	}
	if p.SimilarityTopK == 0 {
		p.SimilarityTopK = def.SimilarityTopK
	}
	if p.Separator == "" {
		p.Separator = def.Separator
	}
	if p.Concurrency == 0 {
		p.Concurrency = def.Concurrency
	}
}
