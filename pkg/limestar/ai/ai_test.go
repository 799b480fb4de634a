package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	raw := `{
		"title": "React 状态管理实践",
		"description": "介绍 React 应用中的状态管理方案。",
		"candidate_categories": ["前端开发"],
		"candidate_tags": ["React", "状态管理", "Redux"]
	}`

	cands, err := parseCandidates(raw, "original")
	require.NoError(t, err)
	assert.Equal(t, "React 状态管理实践", cands.Title)
	assert.Equal(t, []string{"前端开发"}, cands.CandidateCategories)
	assert.Len(t, cands.CandidateTags, 3)
}

func TestParseCandidatesClampsLists(t *testing.T) {
	raw := `{
		"title": "t",
		"candidate_categories": ["a", "b", "c", "d"],
		"candidate_tags": ["1", "2", "3", "4", "5", "6", "7", "8", "9", "10"]
	}`

	cands, err := parseCandidates(raw, "")
	require.NoError(t, err)
	assert.Len(t, cands.CandidateCategories, 2)
	assert.Len(t, cands.CandidateTags, 8)
}

func TestParseCandidatesFallbacks(t *testing.T) {
	cands, err := parseCandidates(`{}`, "Scraped Title")
	require.NoError(t, err)
	assert.Equal(t, "Scraped Title", cands.Title)
	assert.Equal(t, []string{"未分类"}, cands.CandidateCategories)

	cands, err = parseCandidates(`{}`, "")
	require.NoError(t, err)
	assert.Equal(t, "未知标题", cands.Title)
}

func TestParseCandidatesInvalidJSON(t *testing.T) {
	_, err := parseCandidates("not json", "t")
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	cands := &Candidates{
		CandidateCategories: []string{"前端开发"},
		CandidateTags:       []string{"React", "Vue"},
	}

	decision, err := parseDecision(`{"category": "前端开发", "tags": ["React"]}`, cands)
	require.NoError(t, err)
	assert.Equal(t, "前端开发", decision.Category)
	assert.Equal(t, []string{"React"}, decision.Tags)
}

func TestParseDecisionFallbacks(t *testing.T) {
	cands := &Candidates{
		CandidateCategories: []string{"前端开发", "后端开发"},
		CandidateTags:       []string{"React", "Vue"},
	}

	// Missing category falls back to the first candidate, missing tags to the
	// full candidate list
	decision, err := parseDecision(`{}`, cands)
	require.NoError(t, err)
	assert.Equal(t, "前端开发", decision.Category)
	assert.Equal(t, []string{"React", "Vue"}, decision.Tags)

	decision, err = parseDecision(`{}`, &Candidates{})
	require.NoError(t, err)
	assert.Equal(t, "未分类", decision.Category)
}

func TestParseDecisionClampsTags(t *testing.T) {
	decision, err := parseDecision(
		`{"category": "c", "tags": ["1", "2", "3", "4", "5", "6"]}`,
		&Candidates{},
	)
	require.NoError(t, err)
	assert.Len(t, decision.Tags, 4)
}
