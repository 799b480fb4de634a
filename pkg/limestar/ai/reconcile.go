package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxExistingTagSample = 50
	maxFinalTags         = 4
)

const reconcileSystemPrompt = "你是一个标签管理专家，擅长整理和归类标签。始终返回有效的 JSON 格式。"

// Reconcile runs stage 2: map stage-1 candidates onto the existing taxonomy,
// preferring reuse of existing names over creating near-duplicates. Run at a
// lower temperature than stage 1 for consistent classification.
func (c *Client) Reconcile(ctx context.Context, cands *Candidates, existingCategories, existingTags []string) (*Decision, error) {
	if len(existingTags) > maxExistingTagSample {
		existingTags = existingTags[:maxExistingTagSample]
	}

	var sb strings.Builder
	sb.WriteString("你是一个标签管理专家。请根据候选标签和现有标签库，确定最终的分类和标签。\n\n")
	fmt.Fprintf(&sb, "候选分类: %s\n", strings.Join(cands.CandidateCategories, ", "))
	fmt.Fprintf(&sb, "候选标签: %s\n\n", strings.Join(cands.CandidateTags, ", "))
	if len(existingCategories) > 0 {
		fmt.Fprintf(&sb, "现有分类库: %s\n", strings.Join(existingCategories, ", "))
	}
	if len(existingTags) > 0 {
		fmt.Fprintf(&sb, "现有标签库: %s\n", strings.Join(existingTags, ", "))
	}
	sb.WriteString(`
请返回 JSON 格式：
{
    "category": "最终分类",
    "tags": ["标签1", "标签2", "标签3", "标签4"]
}

要求：
1. 最终分类：
   - 如果候选分类与现有分类语义相同或非常接近，选择现有分类（如"前端"和"前端开发"应选择已有的那个）
   - 如果候选分类是全新的领域，可以创建新分类
   - 不要把不相关的内容强行归到已有分类

2. 最终标签（3-4个）：
   - 从候选标签中选择最有代表性的
   - 如果候选标签与现有标签语义相同，优先使用现有标签（保持一致性）
   - 合并相似标签（如 "Prompt Engineering" 和 "Prompt工程" 选择一个）
   - 确保标签与分类不重复
`)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reconcileSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.3,
		MaxTokens:      300,
	})
	if err != nil {
		return nil, &GenerationError{Stage: "reconcile", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Stage: "reconcile", Err: fmt.Errorf("empty response")}
	}

	decision, err := parseDecision(resp.Choices[0].Message.Content, cands)
	if err != nil {
		return nil, &GenerationError{Stage: "reconcile", Err: err}
	}
	return decision, nil
}

// parseDecision decodes and clamps stage-2 model output, falling back to the
// first candidate category when the model omits one
func parseDecision(raw string, cands *Candidates) (*Decision, error) {
	var decision Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}

	if decision.Category == "" {
		if len(cands.CandidateCategories) > 0 {
			decision.Category = cands.CandidateCategories[0]
		} else {
			decision.Category = "未分类"
		}
	}
	if len(decision.Tags) == 0 {
		decision.Tags = cands.CandidateTags
	}
	if len(decision.Tags) > maxFinalTags {
		decision.Tags = decision.Tags[:maxFinalTags]
	}
	return &decision, nil
}
