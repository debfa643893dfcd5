package driving

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// Converter turns a batch of native records into converted objects and
// reconstructed networks.
type Converter interface {
	// ConvertBatch converts every record in the batch for the requested layer.
	// Per-record failures are collected in the report; the returned error is
	// reserved for cancellation and store outages. The sink may be nil.
	ConvertBatch(ctx context.Context, batch []domain.NativeRef, layer domain.Layer, sink driven.DiagnosticsSink) (*domain.BatchReport, error)
}

// NetworkReceiver places a reconstructed network into the host store.
type NetworkReceiver interface {
	// Receive creates the network's curves pass by pass, then its fittings,
	// deferring fittings whose neighbours do not exist yet. The sink may be nil.
	Receive(ctx context.Context, network *domain.Network, sink driven.DiagnosticsSink) (*domain.ReceiveReport, error)
}
