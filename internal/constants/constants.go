package constants

import (
	"time"
)

// Upload limits
const (
	MaxImagesPerListing = 5
	MaxImageBytes       = 2 << 20 // 2 MB per image
	// Multipart bodies above this are rejected before parsing.
	MaxMultipartBytes = MaxImagesPerListing*MaxImageBytes + 1<<20
	ImagesFormField   = "images"
	DetailsFormField  = "details"
)

// Storage timing
const (
	DefaultDBTimeout      = 5 * time.Second
	DBConnectMaxAttempts  = 10
	DBConnectRetryBackoff = 2 * time.Second
)

// Orphan sweep
const (
	DefaultOrphanSweepSchedule = "@every 1h"
	DefaultOrphanSweepGrace    = time.Hour
	OrphanSweepWorkers         = 4
)

// Caller session cache
const (
	SessionTTL             = 15 * time.Minute
	SessionCleanupInterval = 30 * time.Minute
)

const UserIDHeader = "X-User-ID"
