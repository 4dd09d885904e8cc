package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
	"github.com/iamasit07/4-in-a-row/client/internal/metrics"
)

const (
	DefaultInterval = 10 * time.Second
	requestTimeout  = 5 * time.Second
)

// Cache keeps the last good leaderboard between polls. Implemented by
// repository/redis.LeaderboardCache.
type Cache interface {
	Get(ctx context.Context) ([]domain.LeaderboardEntry, bool, error)
	Set(ctx context.Context, entries []domain.LeaderboardEntry, expiration time.Duration) error
}

type Options struct {
	URL        string
	Interval   time.Duration
	HTTPClient *http.Client
	Cache      Cache
	Metrics    *metrics.Metrics
	UserAgent  string
}

// Poller fetches the leaderboard on start, on every tick and whenever a
// refresh is requested. Failures are never surfaced: they publish an empty
// list instead.
type Poller struct {
	url       string
	userAgent string
	interval  time.Duration
	client    *http.Client
	cache     Cache
	metrics   *metrics.Metrics
	log       zerolog.Logger

	refresh chan struct{}
	updates chan []domain.LeaderboardEntry
}

func NewPoller(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	return &Poller{
		url:       opts.URL,
		userAgent: opts.UserAgent,
		interval:  opts.Interval,
		client:    opts.HTTPClient,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		log:       logger.For("leaderboard"),
		refresh:   make(chan struct{}, 1),
		updates:   make(chan []domain.LeaderboardEntry, 1),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.publish(p.Fetch(ctx, false))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.log.Info().Dur("interval", p.interval).Str("url", p.url).Msg("poller started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.publish(p.Fetch(ctx, false))
		case <-p.refresh:
			p.publish(p.Fetch(ctx, true))
		}
	}
}

// Refresh asks for an immediate fetch that skips the cache. Requests made
// while one is already pending are merged into it.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Updates carries the latest fetched list. A slow reader only sees the most
// recent one.
func (p *Poller) Updates() <-chan []domain.LeaderboardEntry {
	return p.updates
}

// Fetch returns the current leaderboard, or an empty list on any failure.
// Unless bypassCache is set a cached list is returned when present; a fresh
// download is always written back to the cache.
func (p *Poller) Fetch(ctx context.Context, bypassCache bool) []domain.LeaderboardEntry {
	if p.cache != nil && !bypassCache {
		entries, found, err := p.cache.Get(ctx)
		if err != nil {
			p.log.Warn().Err(err).Msg("cache read failed")
		} else if found {
			return normalize(entries)
		}
	}

	entries, err := p.download(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn().Err(err).Str("url", p.url).Msg("failed to fetch leaderboard")
		}
		p.metrics.IncLeaderboardFailure()
		return []domain.LeaderboardEntry{}
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, entries, p.cacheTTL()); err != nil {
			p.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return entries
}

// cacheTTL is shorter than the interval so the next tick finds the entry
// expired and downloads again.
func (p *Poller) cacheTTL() time.Duration {
	return p.interval / 2
}

func (p *Poller) download(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return normalize(entries), nil
}

// normalize never returns nil and fills in ranks the server left out.
func normalize(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		e = e.Normalize()
		if e.Rank == 0 {
			e.Rank = i + 1
		}
		out = append(out, e)
	}
	return out
}

func (p *Poller) publish(entries []domain.LeaderboardEntry) {
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- entries:
	default:
	}
}
