package integrity

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ingestMetrics holds lazily-initialized OTel instruments for the ingest path.
// With telemetry disabled the global meter is a no-op, so recording is free.
var ingestMetrics struct {
	minted   metric.Int64Counter
	rejected metric.Int64Counter
	gates    metric.Int64Counter
}

var ingestMetricsOnce sync.Once

func initIngestMetrics() {
	meter := otel.Meter("github.com/m0n0x41d/crucible/internal/integrity")
	ingestMetrics.minted, _ = meter.Int64Counter("crucible.ingest.items_minted",
		metric.WithDescription("Critique items minted by ProcessCritiqueRound"))
	ingestMetrics.rejected, _ = meter.Int64Counter("crucible.ingest.calls_rejected",
		metric.WithDescription("Ingest calls rejected with structural errors"))
	ingestMetrics.gates, _ = meter.Int64Counter("crucible.ingest.downgrade_gates",
		metric.WithDescription("Severity-downgrade gates opened"))
}

func recordIngestMetrics(res *IngestResult) {
	ingestMetricsOnce.Do(initIngestMetrics)
	ctx := context.Background()
	if len(res.Errors) > 0 {
		ingestMetrics.rejected.Add(ctx, 1)
		return
	}
	ingestMetrics.minted.Add(ctx, int64(len(res.MintedItems)))
	for _, w := range res.Warnings {
		if w.Code == WarnDowngradeGate {
			ingestMetrics.gates.Add(ctx, 1)
		}
	}
}
