package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/storage"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/sirupsen/logrus"
)

const existingURLsBatch = 500

// SweepResult summarizes one orphan sweep.
type SweepResult struct {
	Scanned  int
	Recent   int
	Orphaned int
	Removed  int
	Failed   int
}

// OrphanSweepService reclaims upload files that no image row points at. Such
// files appear when a file write succeeds but the row insert does not.
type OrphanSweepService struct {
	images  repositories.PropertyImageRepository
	files   storage.FileStore
	grace   time.Duration
	workers int
	now     func() time.Time
}

func NewOrphanSweepService(
	images repositories.PropertyImageRepository,
	files storage.FileStore,
	grace time.Duration,
	workers int,
) *OrphanSweepService {
	if workers < 1 {
		workers = 1
	}
	return &OrphanSweepService{
		images:  images,
		files:   files,
		grace:   grace,
		workers: workers,
		now:     time.Now,
	}
}

// Run removes every unreferenced file older than the grace period. Files
// younger than that may belong to a create still in flight.
func (s *OrphanSweepService) Run(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	files, err := s.files.List(ctx)
	if err != nil {
		return res, err
	}
	res.Scanned = len(files)

	cutoff := s.now().Add(-s.grace)
	var candidates []string
	for _, f := range files {
		if f.ModTime.After(cutoff) {
			res.Recent++
			continue
		}
		candidates = append(candidates, f.URL)
	}

	var orphans []string
	for start := 0; start < len(candidates); start += existingURLsBatch {
		end := min(start+existingURLsBatch, len(candidates))
		batch := candidates[start:end]
		existing, err := repositories.WithReadRetry(ctx, "existing image urls", func(ctx context.Context) (map[string]bool, error) {
			return s.images.ExistingURLs(ctx, batch)
		})
		if err != nil {
			return res, err
		}
		for _, u := range batch {
			if !existing[u] {
				orphans = append(orphans, u)
			}
		}
	}
	res.Orphaned = len(orphans)

	var removed, failed atomic.Int64
	wp := workerpool.New(s.workers)
	for _, u := range orphans {
		u := u
		wp.Submit(func() {
			if err := s.files.Remove(ctx, u); err != nil {
				failed.Add(1)
				utils.Logger.WithError(err).WithField("image_url", u).Warn("Failed to remove orphaned upload")
				return
			}
			removed.Add(1)
		})
	}
	wp.StopWait()

	res.Removed = int(removed.Load())
	res.Failed = int(failed.Load())

	utils.Logger.WithFields(logrus.Fields{
		"scanned":  res.Scanned,
		"recent":   res.Recent,
		"orphaned": res.Orphaned,
		"removed":  res.Removed,
		"failed":   res.Failed,
	}).Info("Orphan sweep finished")
	return res, nil
}
