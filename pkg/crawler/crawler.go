package crawler

import (
	"context"

	"pindl/pkg/collector"
	"pindl/pkg/logger"
	"pindl/pkg/models"
)

// WebSession is the page interaction surface the crawler needs. A single
// session instance is shared across an entire run, recursive crawls included.
type WebSession interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	ExtractViewportItems(ctx context.Context) ([]models.RawItem, error)
	Scroll(ctx context.Context) error
	AtBottom(ctx context.Context) (bool, error)
}

// PinResolver finalizes collected records into downloadable ones.
type PinResolver interface {
	ResolveAll(ctx context.Context, pins []models.PinRecord) []models.PinRecord
}

// Options controls one folder crawl.
type Options struct {
	// Limit caps how many distinct pins the folder's direct scan collects.
	Limit int
	// Recursive expands discovered boards one level down.
	Recursive bool
}

// Crawler walks a board: scroll-collect until the limit or the bottom of the
// page, resolve every record, then drain discovered subfolders under a
// reduced budget.
type Crawler struct {
	session  WebSession
	resolver PinResolver
	baseURL  string
	logger   logger.Logger
}

func New(session WebSession, resolver PinResolver, baseURL string, log logger.Logger) *Crawler {
	return &Crawler{
		session:  session,
		resolver: resolver,
		baseURL:  baseURL,
		logger:   log.WithField("component", "crawler"),
	}
}

// CrawlFolder crawls one board URL into a finalized folder record.
func (c *Crawler) CrawlFolder(ctx context.Context, folderURL string, opts Options) (*models.FolderRecord, error) {
	if err := c.session.Navigate(ctx, folderURL); err != nil {
		return nil, err
	}

	name, err := c.session.Title(ctx)
	if err != nil {
		return nil, err
	}

	record := &models.FolderRecord{
		Name:       name,
		Pins:       []models.PinRecord{},
		Subfolders: []models.FolderRecord{},
	}

	// A spent budget still names the folder; it just collects nothing.
	if opts.Limit <= 0 {
		return record, nil
	}

	c.logger.InfoWithFields("collecting", map[string]interface{}{
		"folder": name,
		"limit":  opts.Limit,
	})

	col := collector.New(c.baseURL, opts.Limit)
	for col.PinCount() < opts.Limit {
		items, err := c.session.ExtractViewportItems(ctx)
		if err != nil {
			return nil, err
		}
		if err := col.Add(items); err != nil {
			return nil, err
		}
		if err := c.session.Scroll(ctx); err != nil {
			return nil, err
		}
		// Bottom of content always wins over the limit check.
		bottom, err := c.session.AtBottom(ctx)
		if err != nil {
			return nil, err
		}
		if bottom {
			break
		}
	}

	collected := col.PinCount()
	c.logger.InfoWithFields("collection finished", map[string]interface{}{
		"folder": name,
		"pins":   collected,
	})

	record.Pins = c.resolver.ResolveAll(ctx, col.Pins().Values())

	if opts.Recursive {
		pending := col.Folders()
		for len(pending) > 0 {
			folder := pending[0]
			pending = pending[1:]

			// Budget shrinks with what the parent already collected, minus
			// the slack of folders still waiting. Recomputed per sibling,
			// so the global total can overshoot the limit slightly.
			budget := opts.Limit - (collected - len(pending))

			sub, err := c.CrawlFolder(ctx, folder.URL, Options{Limit: budget})
			if err != nil {
				return nil, err
			}
			record.Subfolders = append(record.Subfolders, *sub)
		}
	}

	return record, nil
}
