package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/limestar/limestar/pkg/limestar/ai"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/scraper"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

type stubFetcher struct {
	calls   int
	content *scraper.ScrapedContent
	err     error
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (*scraper.ScrapedContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.content != nil {
		c := *f.content
		c.URL = pageURL
		return &c, nil
	}
	return &scraper.ScrapedContent{
		URL:         pageURL,
		Title:       "Example Page",
		TextContent: "some page text",
	}, nil
}

type stubSuggester struct {
	genCalls int
	recCalls int

	genErr error
	recErr error

	candidates *ai.Candidates
	decision   *ai.Decision

	lastNote       string
	lastCategories []string
	lastTags       []string
}

func (s *stubSuggester) GenerateCandidates(_ context.Context, _, title, _, note string) (*ai.Candidates, error) {
	s.genCalls++
	s.lastNote = note
	if s.genErr != nil {
		return nil, s.genErr
	}
	if s.candidates != nil {
		return s.candidates, nil
	}
	return &ai.Candidates{
		Title:               "示例页面",
		Description:         "一个示例页面的介绍",
		CandidateCategories: []string{"前端开发"},
		CandidateTags:       []string{"React", "状态管理"},
	}, nil
}

func (s *stubSuggester) Reconcile(_ context.Context, cands *ai.Candidates, categories, tags []string) (*ai.Decision, error) {
	s.recCalls++
	s.lastCategories = categories
	s.lastTags = tags
	if s.recErr != nil {
		return nil, s.recErr
	}
	if s.decision != nil {
		return s.decision, nil
	}
	return &ai.Decision{
		Category: cands.CandidateCategories[0],
		Tags:     cands.CandidateTags,
	}, nil
}

func newTestProcessor(db *gorm.DB) (*Processor, *stubFetcher, *stubSuggester) {
	fetcher := &stubFetcher{}
	suggester := &stubSuggester{}
	return New(db, fetcher, suggester), fetcher, suggester
}

func TestAddAndProcess(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)

	link, err := proc.AddAndProcess(context.Background(), "https://example.com/article", "好文章", "bot")
	require.NoError(t, err)

	assert.True(t, link.IsProcessed)
	assert.Equal(t, "示例页面", link.Title)
	assert.Equal(t, "一个示例页面的介绍", link.Description)
	assert.Equal(t, "example.com", link.Domain)
	assert.Equal(t, "bot", link.SubmittedBy)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, suggester.genCalls)
	assert.Equal(t, 1, suggester.recCalls)

	names := tagNames(link.Tags)
	assert.Contains(t, names, "前端开发")
	assert.Contains(t, names, "React")
	assert.Contains(t, names, "状态管理")
}

func TestAddAndProcessNormalizesURL(t *testing.T) {
	db := setupTestDB(t)
	proc, _, _ := newTestProcessor(db)

	link, err := proc.AddAndProcess(context.Background(), "example.com/page", "", "cli")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/page", link.URL)
	assert.Equal(t, "example.com", link.Domain)
}

func TestAddAndProcessDedup(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)

	first, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.NoError(t, err)

	// A second submission, scheme-less this time, resolves to the same record
	// and triggers no fetching or generation
	second, err := proc.AddAndProcess(context.Background(), "example.com", "", "web")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "bot", second.SubmittedBy)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, suggester.genCalls)

	var count int64
	db.Model(&models.Link{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProcessIdempotent(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)

	link, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.NoError(t, err)

	again, err := proc.Process(context.Background(), link.ID, ProcessOptions{})
	require.NoError(t, err)

	assert.Equal(t, link.Title, again.Title)
	assert.Equal(t, tagNames(link.Tags), tagNames(again.Tags))
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, suggester.genCalls)
	assert.Equal(t, 1, suggester.recCalls)
}

func TestProcessForce(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)

	link, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.NoError(t, err)

	suggester.candidates = &ai.Candidates{
		Title:               "更新的标题",
		Description:         "更新的介绍",
		CandidateCategories: []string{"后端开发"},
		CandidateTags:       []string{"Go"},
	}
	suggester.decision = &ai.Decision{Category: "后端开发", Tags: []string{"Go"}}

	updated, err := proc.Process(context.Background(), link.ID, ProcessOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, "更新的标题", updated.Title)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, 2, suggester.genCalls)
	assert.Contains(t, tagNames(updated.Tags), "后端开发")
}

func TestProcessHintOverridesNote(t *testing.T) {
	db := setupTestDB(t)
	proc, _, suggester := newTestProcessor(db)

	link, err := proc.AddAndProcess(context.Background(), "https://example.com", "原始备注", "bot")
	require.NoError(t, err)
	assert.Equal(t, "原始备注", suggester.lastNote)

	_, err = proc.Process(context.Background(), link.ID, ProcessOptions{Force: true, Hint: "临时提示"})
	require.NoError(t, err)
	assert.Equal(t, "临时提示", suggester.lastNote)

	// The hint is a generation-time override, never persisted
	var stored models.Link
	require.NoError(t, db.First(&stored, link.ID).Error)
	assert.Equal(t, "原始备注", stored.UserNote)
}

func TestProcessFetchFailure(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)
	fetcher.err = errors.New("connection refused")

	link, err := proc.AddAndProcess(context.Background(), "https://broken.example.com", "", "bot")
	require.Error(t, err)
	assert.Nil(t, link)
	assert.Equal(t, 0, suggester.genCalls)

	// The link is committed in its failure state so it is never retried
	// automatically
	var stored models.Link
	require.NoError(t, db.Where("url = ?", "https://broken.example.com").First(&stored).Error)
	assert.True(t, stored.IsProcessed)
	assert.True(t, strings.HasPrefix(stored.Description, "处理失败: "))
	assert.Contains(t, stored.Description, "connection refused")
}

func TestProcessGenerationFailurePreservesTitle(t *testing.T) {
	db := setupTestDB(t)
	proc, fetcher, suggester := newTestProcessor(db)
	fetcher.content = &scraper.ScrapedContent{Title: "Scraped Title", TextContent: "text"}
	suggester.genErr = errors.New("model unavailable")

	_, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.Error(t, err)

	var stored models.Link
	require.NoError(t, db.Where("url = ?", "https://example.com").First(&stored).Error)
	assert.True(t, stored.IsProcessed)
	assert.Equal(t, "Scraped Title", stored.Title)
	assert.Contains(t, stored.Description, "model unavailable")
}

func TestProcessReconcileFailure(t *testing.T) {
	db := setupTestDB(t)
	proc, _, suggester := newTestProcessor(db)
	suggester.recErr = errors.New("model unavailable")

	_, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.Error(t, err)

	var stored models.Link
	require.NoError(t, db.Where("url = ?", "https://example.com").First(&stored).Error)
	assert.True(t, stored.IsProcessed)
	assert.Contains(t, stored.Description, "处理失败")
}

func TestProcessLinkNotFound(t *testing.T) {
	db := setupTestDB(t)
	proc, _, _ := newTestProcessor(db)

	_, err := proc.Process(context.Background(), 9999, ProcessOptions{})
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestProcessPassesTaxonomyToReconcile(t *testing.T) {
	db := setupTestDB(t)
	proc, _, suggester := newTestProcessor(db)

	db.Create(&models.Tag{Name: "后端开发", Color: "#34C759", IsCategory: true})
	cat := models.Tag{Name: "前端开发", Color: "#007AFF", IsCategory: true}
	db.Create(&cat)
	db.Create(&models.Tag{Name: "Vue", Color: cat.Color, ParentID: &cat.ID})

	_, err := proc.AddAndProcess(context.Background(), "https://example.com", "", "bot")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"前端开发", "后端开发"}, suggester.lastCategories)
	assert.Equal(t, []string{"Vue"}, suggester.lastTags)
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"example.com":              "https://example.com",
		"  example.com/a ":         "https://example.com/a",
		"https://example.com":      "https://example.com",
		"http://example.com/page":  "http://example.com/page",
		"www.example.com/x?q=1":    "https://www.example.com/x?q=1",
		"":                         "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeURL(input), "input %q", input)
	}
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", ExtractDomain("https://example.com/path"))
	assert.Equal(t, "sub.example.com", ExtractDomain("http://sub.example.com"))
	assert.Equal(t, "example.com", ExtractDomain("example.com/path"))
	assert.Equal(t, "example.com", ExtractDomain("example.com"))
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
