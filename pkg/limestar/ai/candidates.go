package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxContentChars  = 3000
	maxCandidateCats = 2
	maxCandidateTags = 8
)

const candidateSystemPrompt = "你是一个专业的技术内容分析专家，擅长分析网页内容并提取关键信息。始终返回有效的 JSON 格式。"

// GenerateCandidates runs stage 1: generate a Chinese title, description, and
// candidate categories/tags without reference to the existing taxonomy.
func (c *Client) GenerateCandidates(ctx context.Context, pageURL, title, content, note string) (*Candidates, error) {
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	var sb strings.Builder
	sb.WriteString("你是一个技术内容分析专家。请分析以下网页内容，生成中文标题、介绍，以及多个候选分类和标签。\n\n")
	fmt.Fprintf(&sb, "URL: %s\n", pageURL)
	if title != "" {
		fmt.Fprintf(&sb, "原标题: %s\n", title)
	} else {
		sb.WriteString("原标题: 无\n")
	}
	if note != "" {
		fmt.Fprintf(&sb, "用户备注: %s\n", note)
	}
	fmt.Fprintf(&sb, "\n网页内容摘要:\n%s\n", content)
	sb.WriteString(`
请返回 JSON 格式：
{
    "title": "简洁的中文标题",
    "description": "2-3句话的中文介绍",
    "candidate_categories": ["候选分类1", "候选分类2"],
    "candidate_tags": ["标签1", "标签2", "标签3", "标签4", "标签5", "标签6"]
}

要求：
1. 标题简洁明了，不超过30字。如果原标题是中文且合适可直接使用
2. 介绍控制在120字以内，突出内容价值，不要换行
3. 候选分类（1-2个）：
   - 准确描述内容所属的技术领域
   - 常见分类示例：前端开发、后端开发、大模型应用、DevOps、移动开发、数据科学、系统架构、效率工具、编程语言、云计算、安全技术、产品设计、开源项目等
   - 根据内容主题选择最贴切的分类，不要强行归类
4. 候选标签（5-8个）：
   - 尽可能多地提取相关标签
   - 包括：具体技术、框架、产品名称、方法论、概念等
   - 专业术语保留英文（如 React, Vue, LLM, Agent, Claude, GPT, MCP, RAG, Kubernetes, Docker 等）
   - 中文概念用中文（如 Prompt工程, 微服务, 状态管理 等）
   - 标签要具体，避免过于宽泛的词（如"开发"、"工具"、"教程"）
`)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: candidateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.7,
		MaxTokens:      600,
	})
	if err != nil {
		return nil, &GenerationError{Stage: "candidates", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Stage: "candidates", Err: fmt.Errorf("empty response")}
	}

	cands, err := parseCandidates(resp.Choices[0].Message.Content, title)
	if err != nil {
		return nil, &GenerationError{Stage: "candidates", Err: err}
	}
	return cands, nil
}

// parseCandidates decodes and clamps stage-1 model output
func parseCandidates(raw, originalTitle string) (*Candidates, error) {
	var cands Candidates
	if err := json.Unmarshal([]byte(raw), &cands); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	if cands.Title == "" {
		if originalTitle != "" {
			cands.Title = originalTitle
		} else {
			cands.Title = "未知标题"
		}
	}
	if len(cands.CandidateCategories) == 0 {
		cands.CandidateCategories = []string{"未分类"}
	}
	if len(cands.CandidateCategories) > maxCandidateCats {
		cands.CandidateCategories = cands.CandidateCategories[:maxCandidateCats]
	}
	if len(cands.CandidateTags) > maxCandidateTags {
		cands.CandidateTags = cands.CandidateTags[:maxCandidateTags]
	}
	return &cands, nil
}
