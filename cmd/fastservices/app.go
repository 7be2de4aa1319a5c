package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/api"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/attachments"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/checkout"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/imaging"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/proposals"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/provider"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/session"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/config"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/db"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/logging"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/objectstore"
)

// app holds the services one command invocation needs.
type app struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	tokens    session.Store
	client    *api.Client
	requests  *requests.Service
	providers *provider.Service
	proposals *proposals.Service

	database *db.DB
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.NewConsoleLogger(level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx, session.Schema); err != nil {
			database.Close()
			return nil, err
		}
		a.database = database
		a.tokens = session.NewPostgresStore(database, cfg.SessionProfile)
	} else {
		fileStore, err := session.NewFileStore(cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		a.tokens = fileStore
	}

	a.client = api.New(cfg.APIBaseURL, a.tokens,
		api.WithTimeout(cfg.APITimeout),
		api.WithUploadPath(cfg.UploadPath),
		api.WithLogger(logger),
	)
	a.requests = requests.NewService(a.client, requests.WithLogger(logger))
	a.providers = provider.NewService(a.client, provider.WithLogger(logger))
	a.proposals = proposals.NewService(a.client, logger)
	return a, nil
}

func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
	_ = a.logger.Sync()
}

// uploader sends images straight to object storage when it is configured
// and through the backend upload endpoint otherwise.
func (a *app) uploader(ctx context.Context) (attachments.Uploader, error) {
	if !a.cfg.ObjectStoreConfigured() {
		return a.client, nil
	}
	return objectstore.NewClient(ctx, objectstore.Options{
		AccountID:       a.cfg.R2AccountID,
		AccessKeyID:     a.cfg.R2AccessKeyID,
		SecretAccessKey: a.cfg.R2SecretAccessKey,
		Bucket:          a.cfg.R2Bucket,
		PublicBaseURL:   a.cfg.R2PublicBaseURL,
	})
}

func (a *app) pipeline(ctx context.Context) (*attachments.Pipeline, error) {
	up, err := a.uploader(ctx)
	if err != nil {
		return nil, err
	}
	return attachments.NewPipeline(up, attachments.Config{
		MaxItems:     a.cfg.MaxAttachments,
		Processor:    imaging.NewProcessor(a.cfg.ImageMaxEdge, a.cfg.ImageQuality),
		ErrorMessage: api.UserMessage,
		Logger:       a.logger,
	}), nil
}

func (a *app) checkout() (*checkout.Service, error) {
	gw, err := checkout.NewMercadoPagoGateway(a.cfg.MercadoPagoAccessToken, a.cfg.PaymentGatewayMock, a.logger)
	if err != nil {
		return nil, err
	}
	return checkout.NewService(gw, a.requests, a.logger), nil
}
