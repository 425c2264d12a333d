package segmenter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Artifacts bundles the fitted objects and static tables a Service serves from.
type Artifacts struct {
	Scaler   ScalerParams
	Assigner Assigner
	Catalog  Catalog
	Summary  *SummaryTable
}

// Service is the read-only prediction context built once at startup.
// It is safe for concurrent use.
type Service struct {
	cfg      Config
	scaler   ScalerParams
	assigner Assigner
	catalog  Catalog
	summary  *SummaryTable
	logger   *zap.Logger
}

// NewService loads every artifact named by cfg and validates them against each other.
func NewService(ctx context.Context, cfg Config, logger *zap.Logger) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	art, err := loadArtifacts(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := newService(cfg, art, logger)
	if err != nil {
		if art.Assigner != nil {
			_ = art.Assigner.Close()
		}
		return nil, err
	}
	return s, nil
}

// NewServiceFromArtifacts builds a Service from already loaded objects.
func NewServiceFromArtifacts(art Artifacts, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newService(DefaultConfig(), art, logger)
}

func loadArtifacts(ctx context.Context, cfg Config, logger *zap.Logger) (Artifacts, error) {
	var art Artifacts
	var err error

	if art.Scaler, err = LoadScaler(cfg.Artifacts.ScalerPath); err != nil {
		return art, err
	}
	logger.Info("loaded scaler", zap.String("path", cfg.Artifacts.ScalerPath), zap.Int("features", art.Scaler.Dims()))
	if err := ctx.Err(); err != nil {
		return art, err
	}

	if art.Summary, err = LoadSummary(cfg.Artifacts.SummaryPath); err != nil {
		return art, err
	}
	logger.Info("loaded cluster summary", zap.String("path", cfg.Artifacts.SummaryPath), zap.Int("rows", art.Summary.Len()))
	if err := ctx.Err(); err != nil {
		return art, err
	}

	if cfg.CatalogPath != "" {
		if art.Catalog, err = LoadCatalog(cfg.CatalogPath); err != nil {
			return art, err
		}
		logger.Info("loaded segment catalog", zap.String("path", cfg.CatalogPath), zap.Int("segments", len(art.Catalog)))
	} else {
		art.Catalog = DefaultCatalog()
	}
	if err := ctx.Err(); err != nil {
		return art, err
	}

	switch cfg.Model.Backend {
	case BackendONNX:
		onnx, err := NewONNXAssigner(cfg.Model, art.Scaler.Dims())
		if err != nil {
			return art, err
		}
		art.Assigner = onnx
		logger.Info("loaded onnx model", zap.String("path", cfg.Model.ONNXPath), zap.Int("clusters", onnx.Clusters()))
	default:
		model, err := LoadModel(cfg.Artifacts.ModelPath)
		if err != nil {
			return art, err
		}
		art.Assigner = model
		logger.Info("loaded centroid model", zap.String("path", cfg.Artifacts.ModelPath), zap.Int("clusters", model.Clusters()))
	}
	return art, nil
}

func newService(cfg Config, art Artifacts, logger *zap.Logger) (*Service, error) {
	if art.Assigner == nil {
		return nil, errors.New("model is required")
	}
	if art.Summary == nil {
		return nil, errors.New("cluster summary is required")
	}
	if err := art.Scaler.Check(); err != nil {
		return nil, fmt.Errorf("check scaler: %w", err)
	}
	if m, ok := art.Assigner.(ClusterModel); ok && m.Dims() != art.Scaler.Dims() {
		return nil, fmt.Errorf("model has %d dimensions but scaler has %d", m.Dims(), art.Scaler.Dims())
	}
	if err := art.Catalog.Check(); err != nil {
		return nil, fmt.Errorf("check catalog: %w", err)
	}
	if err := ValidateConsistency(art.Assigner.Clusters(), art.Catalog, art.Summary); err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		scaler:   art.Scaler,
		assigner: art.Assigner,
		catalog:  art.Catalog,
		summary:  art.Summary,
		logger:   logger,
	}, nil
}

// Close releases model resources.
func (s *Service) Close() error {
	if s.assigner != nil {
		return s.assigner.Close()
	}
	return nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// Clusters returns K.
func (s *Service) Clusters() int {
	return s.assigner.Clusters()
}

// Predict standardizes fv and returns its nearest cluster.
func (s *Service) Predict(fv FeatureVector) (ClusterID, error) {
	id, err := predictWith(fv, s.scaler, s.assigner)
	if err != nil {
		return 0, err
	}
	if int(id) < 0 || int(id) >= s.Clusters() {
		return 0, &ConfigMismatchError{ClusterID: id, Table: "model", Reason: reasonUnexpected}
	}
	return id, nil
}

// Lookup returns the profile and statistics for id.
func (s *Service) Lookup(id ClusterID) (SegmentProfile, ClusterSummaryRow, error) {
	return Lookup(id, s.catalog, s.summary)
}

// HandlePredictionRequest predicts fv's cluster and builds everything needed to render it.
// Callers are expected to have range-checked fv with FieldSpecs.
func (s *Service) HandlePredictionRequest(fv FeatureVector) (RenderModel, error) {
	id, err := s.Predict(fv)
	if err != nil {
		return RenderModel{}, fmt.Errorf("predict: %w", err)
	}
	rm, err := BuildRenderModel(fv, id, s.catalog, s.summary)
	if err != nil {
		return RenderModel{}, fmt.Errorf("lookup segment: %w", err)
	}
	s.logger.Debug("predicted segment", zap.Int("cluster", int(id)), zap.String("segment", rm.Profile.Name))
	return rm, nil
}

// Legend lists every segment in id order.
func (s *Service) Legend() []LegendEntry {
	return s.catalog.Legend()
}

// Comparison returns the summary table formatted for display without a highlighted row.
func (s *Service) Comparison() ComparisonTable {
	return BuildComparison(s.summary, -1)
}
