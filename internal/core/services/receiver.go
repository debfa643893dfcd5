package services

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/ports/driving"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// Ensure NetworkReceiver implements the interface.
var _ driving.NetworkReceiver = (*NetworkReceiver)(nil)

// NetworkReceiver places networks into the host store.
type NetworkReceiver struct {
	store    driven.NativeStore
	settings domain.EngineSettings
	metrics  driven.Metrics
}

// NewNetworkReceiver creates a receiver. metrics may be nil.
func NewNetworkReceiver(store driven.NativeStore, settings domain.EngineSettings, metrics driven.Metrics) *NetworkReceiver {
	return &NetworkReceiver{store: store, settings: settings, metrics: metricsOrNop(metrics)}
}

// CreatedElements maps application IDs to the native IDs created for them.
type CreatedElements map[string]string

// NativeIDOf implements ElementLookup.
func (c CreatedElements) NativeIDOf(applicationID string) (string, bool) {
	id, ok := c[applicationID]
	return id, ok
}

// Receive creates the network's elements in passes of settings.PassSize.
// Curves are created directly. Fittings whose curves do not exist yet are
// deferred and retried after each pass that created curves; whatever is
// still pending at the end is drained, falling back to unconnected fittings.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (n *NetworkReceiver) Receive(
	ctx context.Context,
	network *domain.Network,
	sink driven.DiagnosticsSink,
) (*domain.ReceiveReport, error) {
	sink = sinkOrNop(sink)
	report := domain.NewReceiveReport()
	created := CreatedElements(report.Created)
	resolver := NewFittingResolver(n.store, created, sink)

	queue := NewDeferredQueue(
		n.settings.RetryBudget,
		func(ctx context.Context, f *domain.DeferredFault) domain.Result {
			req := f.Payload.(domain.FittingRequest)
			res := resolver.Create(ctx, req)
			if res.OK() {
				created[req.ApplicationID] = res.NativeID
			}
			return res
		},
		func(ctx context.Context, f *domain.DeferredFault) (string, error) {
			req := f.Payload.(domain.FittingRequest)
			id, err := resolver.CreateUnconnected(ctx, req)
			if err == nil {
				created[req.ApplicationID] = id
			}
			return id, err
		},
		func(dependencyID string) bool {
			_, ok := created[dependencyID]
			return ok
		},
		sink,
		n.metrics,
	)

	logger.Section("Receive")
	logger.Info("Placing network %s: %d elements", network.ApplicationID, len(network.Elements))

	for _, pass := range passes(len(network.Elements), n.settings.PassSize) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		curves := 0
		for _, i := range pass {
			el := network.Elements[i]
			switch el.Kind {
			case domain.ElementFitting:
				req := fittingRequest(network, i)
				res := resolver.Create(ctx, req)
				n.metrics.Outcome(domain.TypeFitting, res.Outcome)
				switch res.Outcome {
				case domain.OutcomeSuccess:
					created[el.ApplicationID] = res.NativeID
					report.Fittings++
				case domain.OutcomeNotReady:
					queue.Defer(&domain.DeferredFault{
						RequestID:           el.ApplicationID,
						MissingDependencyID: res.MissingDependencyID,
						Payload:             req,
					})
				case domain.OutcomeFailure:
					fail(report, sink, el.ApplicationID, res.Err)
				}
			default:
				id, err := n.store.CreateElement(ctx, elementType(el), elementGeometry(el), elementParams(el))
				if err != nil {
					fail(report, sink, el.ApplicationID, err)
					continue
				}
				created[el.ApplicationID] = id
				if el.Kind == domain.ElementCurve {
					curves++
				}
			}
		}
		report.Passes++

		// Retries run strictly after the pass that may have resolved them.
		if curves > 0 && queue.Len() > 0 {
			report.Fittings += queue.RetryPending(ctx)
		}
	}

	before := queue.Resolved()
	queue.Drain(ctx)
	report.Fittings += queue.Resolved() - before
	report.Retries = queue.Retries()
	report.Degraded = append(report.Degraded, queue.Degraded()...)
	report.Failures = append(report.Failures, queue.Failures()...)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	logger.Info("Placed network %s: %s", network.ApplicationID, summarise(report))
	return report, nil
}

func fail(report *domain.ReceiveReport, sink driven.DiagnosticsSink, id string, err error) {
	sink.Report(domain.Errorf(id, "%v", err))
	report.Failures = append(report.Failures, domain.RecordFailure{RecordID: id, Reason: err.Error()})
}

// passes splits element indices into chunks of size; size <= 0 is one pass.
func passes(count, size int) [][]int {
	if count == 0 {
		return nil
	}
	indices := lo.Range(count)
	if size <= 0 {
		return [][]int{indices}
	}
	return lo.Chunk(indices, size)
}

// fittingRequest builds the request for the fitting at index i from the
// links touching it. A dangling link's far side is its remote ID, which is
// never created, so such fittings end up deferred.
func fittingRequest(network *domain.Network, i int) domain.FittingRequest {
	el := network.Elements[i]
	req := domain.FittingRequest{ApplicationID: el.ApplicationID}
	if el.Object != nil {
		req.Params = el.Object.Attributes
		if s, ok := el.Object.Attributes["partType"].(string); ok {
			req.Part, _ = domain.ParsePartType(s)
		}
		req.Family, _ = el.Object.Attributes["family"].(string)
	}

	for _, li := range network.LinksOf(i) {
		link := network.Links[li]
		fc := domain.FittingConnector{Origin: link.Origin}
		if link.NeedsPlaceholder {
			fc.OwnerApplicationID = link.RemoteID
		} else {
			for _, e := range link.Elements {
				if e != i {
					fc.OwnerApplicationID = network.Elements[e].ApplicationID
					fc.Junction = network.Elements[e].Kind == domain.ElementFitting
				}
			}
		}
		for _, c := range el.Connectors {
			if c.Origin.Coincides(link.Origin, domain.DefaultConnectorTolerance) {
				fc.Domain, fc.Shape, fc.Size = c.Domain, c.Shape, c.Size
				break
			}
		}
		req.Connectors = append(req.Connectors, fc)
	}
	return req
}

func elementType(el domain.NetworkElement) domain.NativeType {
	if el.Type != "" {
		return el.Type
	}
	if el.Object != nil {
		return domain.NativeType(el.Object.Kind)
	}
	return domain.NativeType(el.Kind)
}

func elementGeometry(el domain.NetworkElement) domain.Geometry {
	switch len(el.Connectors) {
	case 0:
		return domain.Geometry{Kind: "none"}
	case 1:
		return domain.PointGeometry(el.Connectors[0].Origin)
	default:
		return domain.LineGeometry(el.Connectors[0].Origin, el.Connectors[len(el.Connectors)-1].Origin)
	}
}

func elementParams(el domain.NetworkElement) map[string]any {
	params := map[string]any{"applicationId": el.ApplicationID}
	if el.Object != nil {
		for k, v := range el.Object.Attributes {
			params[k] = v
		}
	}
	if len(el.Connectors) > 0 {
		params["size"] = el.Connectors[0].Size
		params["domain"] = string(el.Connectors[0].Domain)
	}
	return params
}

// summarise formats a receive report for logs.
func summarise(r *domain.ReceiveReport) string {
	return fmt.Sprintf("%d created, %d fittings, %d degraded, %d failed",
		len(r.Created), r.Fittings, len(r.Degraded), len(r.Failures))
}
