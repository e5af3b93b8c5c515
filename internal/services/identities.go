package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/logger"

	"github.com/google/uuid"
)

type identityService struct {
	repo   database.IdentityRepository
	logger *slog.Logger
}

// NewIdentityService creates the identity management service.
func NewIdentityService(repo database.IdentityRepository, log *slog.Logger) IdentityService {
	return &identityService{
		repo:   repo,
		logger: log,
	}
}

func (s *identityService) Create(
	ctx context.Context,
	environmentAPIKey string,
	req api.CreateIdentityRequest,
) (*api.IdentityDocument, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	if req.Identifier == "" {
		return nil, apperrors.ErrBadRequest("identifier is required", nil)
	}

	compositeKey := api.CompositeKey(environmentAPIKey, req.Identifier)

	doc := &api.IdentityDocument{
		CompositeKey:      compositeKey,
		EnvironmentAPIKey: environmentAPIKey,
		Identifier:        req.Identifier,
		IdentityFeatures:  req.Features,
		IdentityTraits:    req.Traits,
	}

	// An upsert keeps the identity's stable fields from the stored copy.
	existing, err := s.repo.Get(ctx, compositeKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		doc.IdentityUUID = existing.IdentityUUID
		doc.CreatedDate = existing.CreatedDate
	} else {
		doc.IdentityUUID = uuid.NewString()
		doc.CreatedDate = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.repo.Put(ctx, doc); err != nil {
		return nil, err
	}

	reqLogger.Info("identity upserted",
		"environmentAPIKey", environmentAPIKey,
		"identifier", req.Identifier,
		"identityUUID", doc.IdentityUUID,
		"created", existing == nil,
	)

	return doc, nil
}

func (s *identityService) GetByUUID(ctx context.Context, identityUUID string) (*api.IdentityDocument, error) {
	return s.repo.GetByUUID(ctx, identityUUID)
}

func (s *identityService) Delete(ctx context.Context, environmentAPIKey, identifier string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	compositeKey := api.CompositeKey(environmentAPIKey, identifier)
	if err := s.repo.Delete(ctx, compositeKey); err != nil {
		return err
	}

	reqLogger.Info("identity deleted",
		"environmentAPIKey", environmentAPIKey,
		"identifier", identifier,
	)

	return nil
}

func (s *identityService) List(
	ctx context.Context,
	environmentAPIKey string,
	limit int32,
	startKey database.StartKey,
) (*database.Page, error) {
	return s.repo.QueryPage(ctx, database.PageQuery{
		EnvironmentAPIKey: environmentAPIKey,
		Limit:             limit,
		StartKey:          startKey,
	})
}

func (s *identityService) Search(
	ctx context.Context,
	environmentAPIKey string,
	req api.SearchRequest,
	limit int32,
	startKey database.StartKey,
) (*database.Page, error) {
	if !req.Operator.Valid() {
		return nil, apperrors.ErrBadRequest("unsupported search operator", nil)
	}

	return s.repo.Search(ctx, environmentAPIKey, req, limit, startKey)
}

func (s *identityService) Import(
	ctx context.Context,
	environmentAPIKey string,
	docs []api.IdentityDocument,
) (int, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range docs {
		doc := &docs[i]
		doc.EnvironmentAPIKey = environmentAPIKey
		doc.CompositeKey = api.CompositeKey(environmentAPIKey, doc.Identifier)
		if doc.IdentityUUID == "" {
			doc.IdentityUUID = uuid.NewString()
		}
		if doc.CreatedDate == "" {
			doc.CreatedDate = now
		}
	}

	written, err := s.repo.BatchWrite(ctx, docs)
	if err != nil {
		return 0, err
	}

	reqLogger.Info("identities imported",
		"environmentAPIKey", environmentAPIKey,
		"requested", len(docs),
		"written", written,
	)

	return written, nil
}
