package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/ports/driving"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// Ensure Converter implements the interface.
var _ driving.Converter = (*Converter)(nil)

// Converter converts batches of native records.
type Converter struct {
	store    driven.NativeStore
	mappers  driven.MapperRegistry
	metrics  driven.Metrics
	settings domain.EngineSettings
	ids      *IDAllocator
	policy   LayerPolicy
}

// NewConverter creates a converter. metrics may be nil.
func NewConverter(
	store driven.NativeStore,
	mappers driven.MapperRegistry,
	settings domain.EngineSettings,
	metrics driven.Metrics,
) *Converter {
	return &Converter{
		store:    store,
		mappers:  mappers,
		metrics:  metricsOrNop(metrics),
		settings: settings,
		ids:      NewIDAllocator(),
	}
}

// ConvertBatch converts each record in batch for layer, then rebuilds the
// networks formed by the batch's network elements.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (c *Converter) ConvertBatch(
	ctx context.Context,
	batch []domain.NativeRef,
	layer domain.Layer,
	sink driven.DiagnosticsSink,
) (*domain.BatchReport, error) {
	start := time.Now()
	refs := lo.Uniq(batch)
	run := c.newBatch(refs, sink)
	report := &domain.BatchReport{}

	logger.Section("Convert")
	logger.Info("Converting %d records for layer %s", len(refs), layer)

	// 1. Records, in batch order
	var waiting []domain.NativeRef
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := run.Materialize(ctx, ref, layer)
		if res.Outcome == domain.OutcomeNotReady {
			waiting = append(waiting, ref)
			continue
		}
		if err := c.record(run, report, ref, res); err != nil {
			return report, err
		}
	}

	// 2. One more attempt for records whose dependency came later in the batch
	for _, ref := range waiting {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := run.Materialize(ctx, ref, layer)
		if res.Outcome == domain.OutcomeNotReady {
			res = domain.Failure(fmt.Errorf("%w: %v", domain.ErrValidation, res.Err))
		}
		if err := c.record(run, report, ref, res); err != nil {
			return report, err
		}
	}

	// 3. Networks
	logger.Section("Networks")
	builder := NewNetworkBuilder(c.store, c.ids, c.settings.ConnectorTolerance)
	assigned := make(map[string]struct{})
	for _, ref := range refs {
		if !ref.Type.IsNetwork() {
			continue
		}
		if _, done := assigned[ref.String()]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		network, err := builder.Build(ctx, ref.String(), run.scope, run.element, run.sink)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			run.sink.Report(domain.Warnf(ref.String(), "network not built: %v", err))
			continue
		}
		for _, el := range network.Elements {
			assigned[el.NativeID] = struct{}{}
		}
		report.Networks = append(report.Networks, network)
	}

	report.Duration = time.Since(start)
	logger.Info("Converted %d, skipped %d, failed %d, networks %d",
		report.Converted, report.Skipped, len(report.Failures), len(report.Networks))
	logger.Debug("Conversion cache holds %d entries", run.cache.Len())
	return report, nil
}

// record folds one top-level result into the report.
func (c *Converter) record(run *batchRun, report *domain.BatchReport, ref domain.NativeRef, res domain.Result) error {
	c.metrics.Outcome(ref.Type, res.Outcome)
	switch res.Outcome {
	case domain.OutcomeSuccess:
		report.Converted++
		for _, obj := range res.Objects {
			if _, dup := run.emitted[obj]; dup {
				continue
			}
			run.emitted[obj] = struct{}{}
			report.Objects = append(report.Objects, obj)
		}
	case domain.OutcomeSkip:
		report.Skipped++
		run.sink.Report(domain.Infof(ref.String(), "skipped: %s", res.Reason))
	case domain.OutcomeFailure:
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return res.Err
		}
		report.Failures = append(report.Failures, domain.RecordFailure{RecordID: ref.String(), Reason: res.Err.Error()})
		run.sink.Report(domain.Errorf(ref.String(), "%v", res.Err))
	}
	return nil
}

// batchRun is the per-batch state shared by every mapper call.
type batchRun struct {
	c       *Converter
	cache   *ConversionCache
	scope   domain.BatchContext
	sink    driven.DiagnosticsSink
	emitted map[*domain.ConvertedObject]struct{}
}

// Ensure batchRun implements the interface.
var _ driven.MapScope = (*batchRun)(nil)

func (c *Converter) newBatch(refs []domain.NativeRef, sink driven.DiagnosticsSink) *batchRun {
	sink = sinkOrNop(sink)
	ids := lo.Map(refs, func(r domain.NativeRef, _ int) string { return r.String() })
	return &batchRun{
		c:       c,
		cache:   NewConversionCache(sink, c.metrics),
		scope:   domain.NewBatchContext(ids...),
		sink:    sink,
		emitted: make(map[*domain.ConvertedObject]struct{}),
	}
}

// ApplicationID returns the forward ID for ref.
func (r *batchRun) ApplicationID(ref domain.NativeRef) string {
	return r.c.ids.ForRef(ref)
}

// Connectors lists the connectors of a native element.
func (r *batchRun) Connectors(ctx context.Context, elementID string) ([]domain.Connector, error) {
	return r.c.store.ListConnectors(ctx, elementID)
}

// Report records a diagnostic.
func (r *batchRun) Report(d domain.Diagnostic) {
	r.sink.Report(d)
}

// Materialize converts ref through the cache. Layered records go through
// the layer policy and are cached per concrete layer; all other records
// are cached once and shared by both layers.
func (r *batchRun) Materialize(ctx context.Context, ref domain.NativeRef, layer domain.Layer) domain.Result {
	mapper, ok := r.c.mappers.Lookup(ref.Type)
	if !ok {
		return domain.Failuref(domain.ErrUnsupportedType, "no mapper for %s", ref.Type)
	}

	if !mapper.Layered() {
		return r.cache.ResolveOrMaterialize(domain.KeyOf(ref, domain.LayerBoth), func() domain.Result {
			rec, res := r.fetch(ctx, ref)
			if rec == nil {
				return res
			}
			return mapper.Map(ctx, r, rec, driven.LayerTarget{Layer: domain.LayerBoth, ApplicationID: r.ApplicationID(ref)})
		})
	}

	rec, res := r.fetch(ctx, ref)
	if rec == nil {
		return res
	}
	targets, plan := r.c.policy.Plan(rec, layer)
	if len(targets) == 0 {
		return plan
	}

	id := r.ApplicationID(ref)
	var objects []*domain.ConvertedObject
	for _, target := range targets {
		target.ApplicationID = id
		res := r.cache.ResolveOrMaterialize(domain.KeyOf(ref, target.Layer), func() domain.Result {
			return mapper.Map(ctx, r, rec, target)
		})
		if !res.OK() {
			return res
		}
		objects = append(objects, res.Objects...)
	}
	return domain.Success(objects...)
}

func (r *batchRun) fetch(ctx context.Context, ref domain.NativeRef) (*domain.NativeRecord, domain.Result) {
	rec, err := r.c.store.GetRecord(ctx, ref)
	switch {
	case err == nil:
		return rec, domain.Result{}
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.Failuref(domain.ErrValidation, "%s does not exist", ref)
	default:
		return nil, domain.Failure(fmt.Errorf("read %s: %w", ref, err))
	}
}

// element resolves network elements through the same cache as records.
func (r *batchRun) element(ctx context.Context, nativeID string) domain.Result {
	ref, err := domain.ParseNativeRef(nativeID)
	if err != nil {
		return domain.Failure(err)
	}
	return r.Materialize(ctx, ref, domain.LayerBoth)
}
