package processor

import (
	"context"
	"errors"
	"log"

	"github.com/limestar/limestar/pkg/limestar/models"
	"golang.org/x/time/rate"
)

// ErrAlreadyRunning is returned when a batch reprocess is started while one
// is still active
var ErrAlreadyRunning = errors.New("batch reprocess already running")

// JobPhase is the lifecycle phase of a batch reprocess run
type JobPhase string

const (
	JobIdle      JobPhase = "idle"
	JobRunning   JobPhase = "running"
	JobCompleted JobPhase = "completed"
)

// JobStatus is the externally-observable progress of a batch reprocess run
type JobStatus struct {
	Processed  int      `json:"processed"`
	Total      int      `json:"total"`
	CurrentURL string   `json:"current_url,omitempty"`
	Phase      JobPhase `json:"status"`
}

// ReprocessStatus returns a snapshot of the current batch run
func (p *Processor) ReprocessStatus() JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.job
}

// ReprocessAll resets and reprocesses every link in the background, one at a
// time, continuing past per-link failures. Only one run may be active;
// a second invocation is rejected with ErrAlreadyRunning, not queued.
// Returns the number of links scheduled.
func (p *Processor) ReprocessAll() (int, error) {
	p.mu.Lock()
	if p.job.Phase == JobRunning {
		p.mu.Unlock()
		return 0, ErrAlreadyRunning
	}

	var links []models.Link
	if err := p.db.Select("id", "url").Order("id").Find(&links).Error; err != nil {
		p.mu.Unlock()
		return 0, err
	}
	if len(links) == 0 {
		p.mu.Unlock()
		return 0, nil
	}

	p.job = JobStatus{Total: len(links), Phase: JobRunning}
	p.mu.Unlock()

	go p.runBatch(links)
	return len(links), nil
}

// runBatch drives the sequential reprocess loop. Links are deliberately
// processed one at a time: the taxonomy is shared mutable state, and
// serialization is what keeps two links from racing to create the same new
// category. The limiter paces calls to the external model API.
func (p *Processor) runBatch(links []models.Link) {
	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Every(p.batchDelay), 1)

	for i, l := range links {
		p.mu.Lock()
		p.job.Processed = i
		p.job.CurrentURL = l.URL
		p.mu.Unlock()

		if err := p.resetLink(l.ID); err != nil {
			log.Printf("[%d/%d] Reset failed %s: %v", i+1, len(links), l.URL, err)
			continue
		}
		if _, err := p.Process(ctx, l.ID, ProcessOptions{Force: true}); err != nil {
			log.Printf("[%d/%d] 处理失败 %s: %v", i+1, len(links), l.URL, err)
		} else {
			log.Printf("[%d/%d] 已处理: %s", i+1, len(links), l.URL)
		}

		_ = limiter.Wait(ctx)
	}

	p.mu.Lock()
	p.job.Processed = len(links)
	p.job.CurrentURL = ""
	p.job.Phase = JobCompleted
	p.mu.Unlock()
	log.Printf("批量重处理完成！共处理 %d 条链接", len(links))
}

// resetLink returns a link to the unprocessed state and clears its tag set
func (p *Processor) resetLink(linkID uint) error {
	var link models.Link
	if err := p.db.First(&link, linkID).Error; err != nil {
		return err
	}
	if err := p.db.Model(&link).Association("Tags").Clear(); err != nil {
		return err
	}
	return p.db.Model(&link).Update("is_processed", false).Error
}

// ClearTaxonomy deletes every tag and severs all link-tag associations
func (p *Processor) ClearTaxonomy() error {
	if err := p.db.Exec("DELETE FROM link_tags").Error; err != nil {
		return err
	}
	return p.db.Exec("DELETE FROM tags").Error
}
