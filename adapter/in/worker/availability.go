package worker

import (
	"context"
	"sync"
	"time"

	"github.com/official-panen138/seo-nexus/core/domain"
)

// availabilitySweep probes every due domain through a bounded pool.
// Domains still in flight from a previous sweep are skipped.
func (s *Scheduler) availabilitySweep(ctx context.Context) {
	due, err := s.monitor.DueDomains(ctx)
	if err != nil {
		s.log.WithError(err).Error("due-domain query failed")
		return
	}
	if len(due) == 0 {
		return
	}

	concurrency := s.cfg.ProbeConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	started := time.Now()
	probed := 0

	for _, d := range due {
		if ctx.Err() != nil {
			break
		}
		if !s.claim(d.ID) {
			continue
		}
		probed++

		wg.Add(1)
		sem <- struct{}{}
		go func(d *domain.AssetDomain) {
			defer wg.Done()
			defer func() { <-sem }()
			defer s.release(d.ID)

			probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout())
			defer cancel()
			if _, err := s.monitor.CheckDomain(probeCtx, d); err != nil {
				s.log.WithError(err).WithField("domain", d.DomainName).Error("probe write failed")
			}
		}(d)
	}
	wg.Wait()

	s.log.WithFields(map[string]any{
		"due": len(due), "probed": probed, "duration_ms": time.Since(started).Milliseconds(),
	}).Debug("availability sweep complete")
}
