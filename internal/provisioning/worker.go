package provisioning

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"siteforge/internal/edge"
	"siteforge/internal/model"
)

// WorkerConfig holds configuration for the SSL status worker.
type WorkerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// Worker periodically reconciles pending certificate states. The
// orchestrator never polls on its own; this worker is the scheduler that
// invokes CheckSSLStatus for sites whose certificates are still being
// issued.
type Worker struct {
	ctx     context.Context
	cancel  context.CancelFunc
	db      *gorm.DB
	service *Service
	logger  *logrus.Entry
	config  WorkerConfig
}

// NewWorker creates a new SSL status worker.
func NewWorker(db *gorm.DB, service *Service, logger *logrus.Entry, config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ctx:     ctx,
		cancel:  cancel,
		db:      db,
		service: service,
		logger:  logger.WithField("component", "ssl-status-worker"),
		config:  config,
	}
}

// Start begins the periodic reconciliation.
func (w *Worker) Start() {
	if !w.config.Enabled {
		w.logger.Info("SSL status worker disabled, not starting")
		return
	}

	w.logger.WithFields(logrus.Fields{
		"intervalSec": w.config.IntervalSec,
		"batchSize":   w.config.BatchSize,
	}).Info("Starting SSL status worker")

	go func() {
		ticker := time.NewTicker(time.Duration(w.config.IntervalSec) * time.Second)
		defer ticker.Stop()

		w.tick()
		for {
			select {
			case <-ticker.C:
				w.tick()
			case <-w.ctx.Done():
				w.logger.Info("SSL status worker stopped")
				return
			}
		}
	}()
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.cancel()
}

// tick checks one batch of sites with certificates still pending.
func (w *Worker) tick() {
	var sites []model.Site
	err := w.db.
		Where("external_hostname_id <> ''").
		Where("ssl_status NOT IN ?", edge.TerminalSSLStatuses()).
		Order("updated_at ASC").
		Limit(w.config.BatchSize).
		Find(&sites).Error
	if err != nil {
		w.logger.WithError(err).Error("Failed to load pending sites")
		return
	}
	if len(sites) == 0 {
		return
	}

	activated := 0
	for _, site := range sites {
		res := w.service.CheckSSLStatus(w.ctx, site.ExternalHostnameID)
		if !res.Success {
			w.logger.WithFields(logrus.Fields{
				"siteId":     site.ID,
				"hostnameId": site.ExternalHostnameID,
			}).Warnf("Status check failed: %s", res.Error)
			continue
		}
		if res.Data.Active {
			activated++
		}
	}

	w.logger.WithFields(logrus.Fields{
		"checked":   len(sites),
		"activated": activated,
	}).Info("SSL status tick done")
}
