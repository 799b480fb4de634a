package ai

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// GenerationError indicates a model call failure or unparseable model output
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Candidates is the stage-1 result: freely generated, taxonomy-blind
type Candidates struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	CandidateCategories []string `json:"candidate_categories"`
	CandidateTags       []string `json:"candidate_tags"`
}

// Decision is the stage-2 result: one category plus final sub-tags,
// reconciled against the existing taxonomy
type Decision struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Client talks to an OpenAI-compatible chat completion API
type Client struct {
	api   *openai.Client
	model string
}

// Config configures the model client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient creates a model client against an OpenAI-compatible endpoint
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
	}
}
