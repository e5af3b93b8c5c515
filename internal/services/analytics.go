package services

import (
	"context"
	"log/slog"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/database"
	"github.com/edgeflag/edgeflag/internal/logger"
)

// unknownFeatureID buckets overrides whose feature id is missing, so one
// malformed record cannot abort a whole aggregation.
const unknownFeatureID int64 = 0

type analyticsService struct {
	repo   database.IdentityRepository
	logger *slog.Logger

	// capacityBudget caps the cumulative read capacity of one aggregation
	// scan. Zero means unbounded.
	capacityBudget float64
	pageSize       int32
}

// NewAnalyticsService creates the override analytics service. The capacity
// budget and page size come from configuration and apply to every
// aggregation scan the service runs.
func NewAnalyticsService(
	repo database.IdentityRepository,
	log *slog.Logger,
	capacityBudget float64,
	pageSize int32,
) AnalyticsService {
	return &analyticsService{
		repo:           repo,
		logger:         log,
		capacityBudget: capacityBudget,
		pageSize:       pageSize,
	}
}

func (s *analyticsService) OverrideCount(ctx context.Context, environmentAPIKey string) (int, error) {
	total := 0
	err := s.aggregate(ctx, environmentAPIKey, func(featureIDs map[int64]struct{}) {
		total += len(featureIDs)
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (s *analyticsService) OverrideCountsByFeature(
	ctx context.Context,
	environmentAPIKey string,
) (map[int64]int, error) {
	counts := make(map[int64]int)
	err := s.aggregate(ctx, environmentAPIKey, func(featureIDs map[int64]struct{}) {
		for id := range featureIDs {
			counts[id]++
		}
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// aggregate runs one overrides-only scan, reducing each identity to its set
// of distinct override feature ids. A feature overridden twice on the same
// identity contributes once.
func (s *analyticsService) aggregate(
	ctx context.Context,
	environmentAPIKey string,
	reduce func(featureIDs map[int64]struct{}),
) error {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	sc := s.repo.Scan(database.ScanOptions{
		EnvironmentAPIKey: environmentAPIKey,
		PageSize:          s.pageSize,
		CapacityBudget:    s.capacityBudget,
		OverridesOnly:     true,
	})

	identities := 0
	for sc.Next(ctx) {
		reduce(distinctFeatureIDs(sc.Item()))
		identities++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	reqLogger.Debug("override aggregation complete",
		"environmentAPIKey", environmentAPIKey,
		"identities", identities,
	)

	return nil
}

func distinctFeatureIDs(doc *api.IdentityDocument) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(doc.IdentityFeatures))
	for _, override := range doc.IdentityFeatures {
		// A zero id is the unknown-feature bucket; missing feature
		// payloads unmarshal to it naturally.
		id := override.Feature.ID
		if id < 0 {
			id = unknownFeatureID
		}
		ids[id] = struct{}{}
	}
	return ids
}
