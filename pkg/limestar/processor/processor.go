package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/limestar/limestar/pkg/limestar/ai"
	"github.com/limestar/limestar/pkg/limestar/models"
	"github.com/limestar/limestar/pkg/limestar/scraper"
	"gorm.io/gorm"
)

// ErrLinkNotFound is returned when a link id does not exist
var ErrLinkNotFound = errors.New("link not found")

// ContentFetcher fetches a URL and extracts its content
type ContentFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scraper.ScrapedContent, error)
}

// TagSuggester runs the two model stages of the tagging pipeline
type TagSuggester interface {
	GenerateCandidates(ctx context.Context, pageURL, title, content, note string) (*ai.Candidates, error)
	Reconcile(ctx context.Context, cands *ai.Candidates, existingCategories, existingTags []string) (*ai.Decision, error)
}

// ProcessOptions controls a single Process invocation
type ProcessOptions struct {
	// Force reprocesses a link even if it is already marked processed
	Force bool
	// Hint overrides the stored user note for the generation stage only
	Hint string
}

// Processor orchestrates fetch, two-stage tagging, tag materialization,
// and persistence for a link
type Processor struct {
	db        *gorm.DB
	fetcher   ContentFetcher
	suggester TagSuggester

	mu         sync.Mutex
	job        JobStatus
	batchDelay time.Duration
}

// New creates a processor with its collaborators injected
func New(db *gorm.DB, fetcher ContentFetcher, suggester TagSuggester) *Processor {
	return &Processor{
		db:         db,
		fetcher:    fetcher,
		suggester:  suggester,
		job:        JobStatus{Phase: JobIdle},
		batchDelay: 500 * time.Millisecond,
	}
}

// Process runs the full pipeline for one link. Already-processed links are
// returned unchanged unless opts.Force is set. Fetch and generation failures
// still mark the link processed (with a failure description) before the
// error is returned, so a broken URL is never retried forever.
func (p *Processor) Process(ctx context.Context, linkID uint, opts ProcessOptions) (*models.Link, error) {
	var link models.Link
	if err := p.db.Preload("Tags").First(&link, linkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrLinkNotFound, linkID)
		}
		return nil, err
	}

	if link.IsProcessed && !opts.Force {
		return &link, nil
	}

	// Scalar saves below must not touch the association table
	link.Tags = nil

	scraped, err := p.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return nil, p.markFailed(&link, err)
	}

	note := link.UserNote
	if opts.Hint != "" {
		note = opts.Hint
	}

	cands, err := p.suggester.GenerateCandidates(ctx, link.URL, scraped.Title, scraped.TextContent, note)
	if err != nil {
		if scraped.Title != "" {
			link.Title = scraped.Title
		}
		return nil, p.markFailed(&link, err)
	}

	// Snapshot the taxonomy only after stage 1 completes, to shrink the race
	// window against other links being materialized in the meantime
	categories, subTags, err := p.taxonomySnapshot()
	if err != nil {
		return nil, p.markFailed(&link, err)
	}

	decision, err := p.suggester.Reconcile(ctx, cands, categories, subTags)
	if err != nil {
		return nil, p.markFailed(&link, err)
	}

	link.Title = cands.Title
	link.Description = cands.Description
	link.FaviconURL = scraped.FaviconURL
	link.OGImageURL = scraped.OGImageURL
	link.IsProcessed = true

	if err := p.db.Save(&link).Error; err != nil {
		return nil, err
	}

	if err := p.materializeTags(&link, decision.Category, decision.Tags); err != nil {
		return nil, p.markFailed(&link, err)
	}

	var updated models.Link
	if err := p.db.Preload("Tags").First(&updated, link.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddAndProcess normalizes the URL, dedupes by exact match, creates an
// unprocessed link if needed, and immediately processes it
func (p *Processor) AddAndProcess(ctx context.Context, rawURL, note, submittedBy string) (*models.Link, error) {
	normalized := NormalizeURL(rawURL)

	var existing models.Link
	err := p.db.Preload("Tags").Where("url = ?", normalized).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link := models.Link{
		URL:         normalized,
		Title:       ExtractDomain(normalized), // temporary until processed
		Description: "",
		UserNote:    note,
		Domain:      ExtractDomain(normalized),
		SubmittedBy: submittedBy,
		IsProcessed: false,
	}
	if err := p.db.Create(&link).Error; err != nil {
		return nil, err
	}

	return p.Process(ctx, link.ID, ProcessOptions{})
}

// markFailed transitions a link to processed-with-error and commits the
// state change before the original error is propagated
func (p *Processor) markFailed(link *models.Link, cause error) error {
	link.IsProcessed = true
	link.Description = "处理失败: " + cause.Error()
	if saveErr := p.db.Save(link).Error; saveErr != nil {
		log.Printf("Failed to persist failure state for link %d: %v", link.ID, saveErr)
	}
	return cause
}

// taxonomySnapshot returns all category names and a bounded sample of
// sub-tag names for the reconciliation stage
func (p *Processor) taxonomySnapshot() ([]string, []string, error) {
	var categories []string
	if err := p.db.Model(&models.Tag{}).Where("is_category = ?", true).
		Order("sort_order, name").Pluck("name", &categories).Error; err != nil {
		return nil, nil, err
	}

	var subTags []string
	if err := p.db.Model(&models.Tag{}).Where("is_category = ?", false).
		Order("name").Limit(maxSubTagSample).Pluck("name", &subTags).Error; err != nil {
		return nil, nil, err
	}
	return categories, subTags, nil
}

const maxSubTagSample = 50

// NormalizeURL prepends https:// when no scheme is given. No further
// canonicalization: deduplication is by exact normalized match.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	if !strings.Contains(rawURL, "://") {
		return "https://" + rawURL
	}
	return rawURL
}

// ExtractDomain returns the host part of a URL
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		// Fall back to the first path segment for scheme-less input
		trimmed := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
		if i := strings.IndexByte(trimmed, '/'); i >= 0 {
			return trimmed[:i]
		}
		return trimmed
	}
	return parsed.Host
}
