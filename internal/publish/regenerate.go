package publish

import (
	"context"
	"errors"
	"fmt"
	"os"

	"read-articles/internal/site"
)

// Summary reports what a regeneration produced.
type Summary struct {
	Episodes  int
	Estimated int
	Missing   int
}

// Regenerate rebuilds the feed and the page from the ledger alone. The feed
// starts from the configured channel and the page container is emptied; a
// page that is missing or malformed is replaced by the skeleton. Rows are
// replayed newest first, so both documents list the newest episode on top.
func (p *Publisher) Regenerate(ctx context.Context) (Summary, error) {
	lock, err := p.ws.Lock()
	if err != nil {
		return Summary{}, err
	}
	defer lock.Unlock()

	rows, err := p.ledger.LoadAll()
	if err != nil {
		return Summary{}, err
	}
	p.logger.Printf("regenerating from %d ledger rows", len(rows))

	page, err := p.resetPage()
	if err != nil {
		return Summary{}, err
	}
	doc := p.newFeed()

	now := p.now()
	var summary Summary
	for i := len(rows) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		ep := rows[i]
		info, ok := p.probe(ep)
		if !ok {
			summary.Missing++
		} else if info.Estimated {
			summary.Estimated++
		}

		item, frag, err := p.project(ep, info, len(rows)-1-i, now)
		if err != nil {
			return Summary{}, fmt.Errorf("project %q: %w", ep.Title, err)
		}
		doc.Append(item)
		page.Append(frag)
		summary.Episodes++
	}

	if err := p.ws.EnsureDirs(); err != nil {
		return Summary{}, err
	}
	if err := doc.Write(p.ws.FeedPath, now); err != nil {
		return Summary{}, err
	}
	if err := page.Write(p.ws.PagePath); err != nil {
		return Summary{}, err
	}

	p.logger.Printf("regenerated %d episodes (%d estimated durations, %d missing files)",
		summary.Episodes, summary.Estimated, summary.Missing)
	return summary, nil
}

func (p *Publisher) resetPage() (*site.Page, error) {
	page, err := site.Load(p.ws.PagePath, p.settings.ContainerID)
	switch {
	case err == nil:
		page.Reset()
		return page, nil
	case errors.Is(err, os.ErrNotExist):
		p.logger.Printf("no page at %s, using the skeleton", p.ws.PagePath)
	case errors.Is(err, site.ErrMalformedPage):
		p.logger.Printf("page at %s is unusable (%v), replacing it with the skeleton", p.ws.PagePath, err)
	default:
		return nil, err
	}
	return p.Skeleton()
}
