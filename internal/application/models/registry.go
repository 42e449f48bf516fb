// Package models keeps one space optimizer and one energy predictor per
// company and trains them on demand.
package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartspace/backend/internal/application/energy"
	"github.com/smartspace/backend/internal/application/space"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/config"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// Registry owns the per-company analytics models
type Registry struct {
	analytics config.AnalyticsConfig
	logger    *zap.Logger
	collector *telemetry.AnalyticsCollector
	now       func() time.Time

	mu         sync.Mutex
	optimizers map[string]*space.Optimizer
	predictors map[string]*energy.Predictor
}

// NewRegistry creates an empty registry. collector may be nil.
func NewRegistry(cfg config.AnalyticsConfig, collector *telemetry.AnalyticsCollector, logger *zap.Logger) *Registry {
	return &Registry{
		analytics:  cfg,
		logger:     logger.Named("models"),
		collector:  collector,
		now:        time.Now,
		optimizers: make(map[string]*space.Optimizer),
		predictors: make(map[string]*energy.Predictor),
	}
}

// Optimizer returns the space optimizer of a company, creating an untrained
// one on first use.
func (r *Registry) Optimizer(companyID string) *space.Optimizer {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.optimizers[companyID]
	if !ok {
		o = space.NewOptimizer(space.ConfigFromAnalytics(companyID, r.analytics, r.now()), r.logger)
		r.optimizers[companyID] = o
	}
	return o
}

// Predictor returns the energy predictor of a company, creating an untrained
// one on first use.
func (r *Registry) Predictor(companyID string) *energy.Predictor {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.predictors[companyID]
	if !ok {
		p = energy.NewPredictor(energy.ConfigFromAnalytics(companyID, r.analytics, r.now()), r.logger)
		r.predictors[companyID] = p
	}
	return p
}

// Companies lists the companies that have models, sorted
func (r *Registry) Companies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.optimizers))
	for id := range r.optimizers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Train fits both models of a company concurrently. Models that are already
// trained are left alone unless force is set.
func (r *Registry) Train(ctx context.Context, companyID string, force bool) error {
	optimizer := r.Optimizer(companyID)
	predictor := r.Predictor(companyID)

	g, ctx := errgroup.WithContext(ctx)
	if force || !optimizer.IsTrained() {
		g.Go(func() error {
			metrics, err := optimizer.Train(ctx)
			if err != nil {
				return err
			}
			if r.collector != nil {
				r.collector.SetModelAccuracy(string(workspace.ModelSpaceOptimizer), metrics.TestR2)
			}
			return nil
		})
	}
	if force || !predictor.IsTrained() {
		g.Go(func() error {
			metrics, err := predictor.Train(ctx)
			if err != nil {
				return err
			}
			if r.collector != nil {
				r.collector.SetModelAccuracy(string(workspace.ModelEnergyPredictor), metrics.Ensemble.TestR2)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("Model training failed", zap.String("company_id", companyID), zap.Error(err))
		return err
	}
	return nil
}
