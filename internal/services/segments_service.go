package services

import (
	"context"
	"log/slog"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/logger"
	"github.com/edgeflag/edgeflag/internal/segments"
)

type segmentService struct {
	identities   database.IdentityRepository
	environments database.EnvironmentRepository
	logger       *slog.Logger
}

// NewSegmentService creates the segment membership resolution service.
func NewSegmentService(
	identities database.IdentityRepository,
	environments database.EnvironmentRepository,
	log *slog.Logger,
) SegmentService {
	return &segmentService{
		identities:   identities,
		environments: environments,
		logger:       log,
	}
}

// SegmentIDs resolves membership by uuid. Resolution fails soft: an identity
// or environment that cannot be found yields no segments rather than an
// error, since membership is advisory for its consumers.
func (s *segmentService) SegmentIDs(ctx context.Context, identityUUID string) ([]int64, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	doc, err := s.identities.GetByUUID(ctx, identityUUID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			reqLogger.Debug("identity not found for segment resolution",
				"identityUUID", identityUUID,
			)
			return []int64{}, nil
		}
		return nil, err
	}

	return s.SegmentIDsForIdentity(ctx, doc)
}

func (s *segmentService) SegmentIDsForIdentity(
	ctx context.Context,
	doc *api.IdentityDocument,
) ([]int64, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	env, err := s.environments.Get(ctx, doc.EnvironmentAPIKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			reqLogger.Debug("environment not found for segment resolution",
				"environmentAPIKey", doc.EnvironmentAPIKey,
			)
			return []int64{}, nil
		}
		return nil, err
	}

	evalCtx := segments.NewEvaluationContext(doc)
	ids := segments.MatchingSegmentIDs(env.Project.Segments, evalCtx)

	reqLogger.Debug("segment membership resolved",
		"identityUUID", doc.IdentityUUID,
		"segments", len(ids),
	)

	return ids, nil
}
