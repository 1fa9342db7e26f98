package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/coastal-change-dashboard/internal/coastal"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/view"
)

// LoadErrorMessage is shown in place of the table when coastal data cannot be fetched.
const LoadErrorMessage = "Unable to load coastal data"

// CoastalSource is the one backend call a dashboard render needs.
type CoastalSource interface {
	FetchCoastalData(ctx context.Context) ([]models.CoastalRecord, error)
}

// DashboardService loads the data panel of a dashboard render. The shoreline
// feed is not part of it: the map mounts through /api/maps in its own request,
// so neither fetch waits on the other.
type DashboardService struct {
	coastal CoastalSource
	logger  *zap.Logger
}

func NewDashboardService(source CoastalSource, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{coastal: source, logger: logger}
}

// Snapshot is the raw result of one load. RecordsErr is set when the coastal
// backend failed.
type Snapshot struct {
	Records    []models.CoastalRecord
	RecordsErr error
}

// Load fetches the coastal records.
func (s *DashboardService) Load(ctx context.Context) Snapshot {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, s.logger)

	var snap Snapshot
	snap.Records, snap.RecordsErr = s.coastal.FetchCoastalData(ctx)
	if snap.RecordsErr != nil {
		logger.Warn("coastal data load failed", zap.Error(snap.RecordsErr))
		return snap
	}
	logger.Debug("dashboard data loaded",
		zap.Int("records", len(snap.Records)),
		zap.Duration("duration", time.Since(start)),
	)
	return snap
}

// Dashboard loads and builds the data panel for filters. A backend failure
// yields an empty table with LoadErrorMessage; it is never returned as an error.
func (s *DashboardService) Dashboard(ctx context.Context, f coastal.Filters) (view.Dashboard, Snapshot) {
	snap := s.Load(ctx)
	if snap.RecordsErr != nil {
		d := view.BuildDashboard(nil, f)
		d.LoadError = LoadErrorMessage
		return d, snap
	}
	return view.BuildDashboard(snap.Records, f), snap
}
