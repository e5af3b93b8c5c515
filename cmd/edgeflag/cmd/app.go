package cmd

import (
	"context"
	"fmt"
	"log/slog"

	appconfig "github.com/edgeflag/edgeflag/internal/config"
	"github.com/edgeflag/edgeflag/internal/database/dynamodb"
	"github.com/edgeflag/edgeflag/internal/services"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// app bundles the wired services a command needs.
type app struct {
	cfg       *appconfig.Config
	logger    *slog.Logger
	identity  services.IdentityService
	analytics services.AnalyticsService
	segments  services.SegmentService
}

// buildApp loads configuration and wires repositories and services over the
// AWS SDK client resolved from the default credential chain.
func buildApp(ctx context.Context, log *slog.Logger) (*app, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, err
	}
	return buildAppFromConfig(ctx, cfg, log)
}

func buildAppFromConfig(ctx context.Context, cfg *appconfig.Config, log *slog.Logger) (*app, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := dynamodb.NewClientAdapter(awsdynamodb.NewFromConfig(awsCfg))
	identities := dynamodb.NewIdentityRepository(client, cfg.IdentitiesTable, log)
	environments := dynamodb.NewEnvironmentRepository(client, cfg.EnvironmentsTable, log)

	return &app{
		cfg:       cfg,
		logger:    log,
		identity:  services.NewIdentityService(identities, log),
		analytics: services.NewAnalyticsService(identities, log, cfg.OverridesCapacityBudget, cfg.ScanPageSize),
		segments:  services.NewSegmentService(identities, environments, log),
	}, nil
}
