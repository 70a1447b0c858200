// Package pipeline orchestrates the per-order analysis chain: parse,
// build, reconcile, analyze. Every stage boundary is wrapped by the
// span recorder and every terminal artifact goes through the
// content-addressed store, so a run is reproducible and auditable end
// to end.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/orderops/internal/artifact"
	"github.com/sells-group/orderops/internal/builder"
	"github.com/sells-group/orderops/internal/canonical"
	"github.com/sells-group/orderops/internal/config"
	"github.com/sells-group/orderops/internal/model"
	"github.com/sells-group/orderops/internal/rca"
	"github.com/sells-group/orderops/internal/reconcile"
	"github.com/sells-group/orderops/internal/tabular"
	"github.com/sells-group/orderops/internal/trace"
)

const contentTypeJSON = "application/json"

// Pipeline owns the run-scoped policy objects. Each order processed
// gets its own recorder and intermediate state; the artifact store is
// the only shared resource.
type Pipeline struct {
	cfg     *config.Config
	store   artifact.Store
	builder *builder.Builder
	engine  *rca.Engine
	aliases *tabular.AliasTable
}

// New wires a pipeline from explicit dependencies. Nil precedence or
// aliases fall back to the built-in defaults.
func New(cfg *config.Config, store artifact.Store, precedence *builder.PrecedenceTable, aliases *tabular.AliasTable) *Pipeline {
	if aliases == nil {
		aliases = tabular.DefaultAliases()
	}
	rcaCfg := rca.DefaultConfig()
	if cfg != nil {
		if cfg.Analysis.SlipThresholdHours > 0 {
			rcaCfg.SlipThresholdHours = cfg.Analysis.SlipThresholdHours
		}
		if cfg.Analysis.MediumHours > 0 {
			rcaCfg.MediumHours = cfg.Analysis.MediumHours
		}
		if cfg.Analysis.HighHours > 0 {
			rcaCfg.HighHours = cfg.Analysis.HighHours
		}
		for _, kind := range cfg.Analysis.DisabledRules {
			rcaCfg.Disabled = append(rcaCfg.Disabled, model.IncidentKind(kind))
		}
	}
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		builder: builder.New(precedence),
		engine:  rca.New(rcaCfg),
		aliases: aliases,
	}
}

// Run executes the pipeline over a set of input documents: parse
// everything, group records by order identity, then process each order
// independently. A bad document or a failing order never aborts the
// rest of the batch.
func (p *Pipeline) Run(ctx context.Context, docs []Document) (*model.Run, error) {
	log := zap.L()
	run := &model.Run{
		ID:        uuid.NewString(),
		Status:    model.RunStatusParsing,
		CreatedAt: time.Now().UTC(),
	}
	log.Info("pipeline: starting run",
		zap.String("run_id", run.ID), zap.Int("documents", len(docs)))

	// Stable input order is part of the determinism contract: equal
	// precedence ties resolve to the earlier-parsed record.
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	parseRec := trace.NewRecorder()
	records := p.parseAll(ctx, docs, parseRec)

	run.Status = model.RunStatusRunning
	ids, groups, orphans := builder.GroupByOrder(records)
	for _, orphan := range orphans {
		log.Warn("pipeline: record without order identity skipped",
			zap.String("document", orphan.DocID))
	}

	results := make([]model.OrderResult, len(ids))
	var resultsMu sync.Mutex

	workers := 4
	if p.cfg != nil && p.cfg.Batch.MaxConcurrentOrders > 0 {
		workers = p.cfg.Batch.MaxConcurrentOrders
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			result := p.processOrder(gCtx, run.ID, id, groups[id])
			resultsMu.Lock()
			results[i] = result
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		run.Status = model.RunStatusFailed
		return run, eris.Wrap(err, "pipeline: batch")
	}

	sort.Slice(results, func(i, j int) bool { return results[i].OrderID < results[j].OrderID })
	run.Orders = results
	run.Status = model.RunStatusComplete
	run.UpdatedAt = time.Now().UTC()

	p.persistRun(ctx, run, parseRec)
	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID), zap.Int("orders", len(results)))
	return run, nil
}

// parseAll runs every document through its parser, recording one span
// per document. Unparseable documents contribute an ERROR span and are
// skipped; the run continues with the rest.
func (p *Pipeline) parseAll(ctx context.Context, docs []Document, rec *trace.Recorder) []*model.IntermediateRecord {
	var records []*model.IntermediateRecord
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		doc.Digest = canonical.DigestBytes(doc.Content)
		if _, err := p.store.Put(ctx, doc.Content, "text/plain"); err != nil {
			zap.L().Warn("pipeline: failed to store raw document",
				zap.String("document", doc.Name), zap.Error(err))
		}

		parsed, err := trace.Record(rec, "parse:"+doc.Name, doc, func(d Document) ([]*model.IntermediateRecord, error) {
			return p.parseDocument(d)
		})
		if err != nil {
			zap.L().Warn("pipeline: document skipped",
				zap.String("document", doc.Name), zap.Error(err))
			continue
		}
		records = append(records, parsed...)
	}
	return records
}

// processOrder runs the build → reconcile → analyze chain for one
// order, each stage under its own span, and writes the canonical
// order, the RCA report, and the span log through the artifact store.
func (p *Pipeline) processOrder(ctx context.Context, runID, orderID string, records []*model.IntermediateRecord) model.OrderResult {
	log := zap.L().With(zap.String("run_id", runID), zap.String("order_id", orderID))
	rec := trace.NewRecorder()
	result := model.OrderResult{OrderID: orderID}

	order, err := trace.Record(rec, "build_com", records, p.builder.Build)
	if err != nil {
		log.Error("pipeline: merge failed", zap.Error(err))
		result.Error = err.Error()
		p.finishOrder(ctx, runID, orderID, rec, &result)
		return result
	}

	delta, reconcileErr := trace.Record(rec, "reconcile_eta", order, reconcile.Reconcile)
	if reconcileErr != nil {
		// Fatal for the delta only: rules that don't need it still run.
		log.Warn("pipeline: reconciliation failed", zap.Error(reconcileErr))
		delta = nil
	}

	report, _ := trace.Record(rec, "analyze_rca", order, func(o *model.CanonicalOrder) (*model.Report, error) {
		return p.engine.Report(o, delta, reconcileErr), nil
	})
	result.Incidents = len(report.Incidents)

	if digest, err := p.putCanonical(ctx, order); err != nil {
		log.Error("pipeline: store canonical order", zap.Error(err))
		result.Error = err.Error()
	} else {
		result.OrderDigest = digest
	}
	if digest, err := p.putCanonical(ctx, report); err != nil {
		log.Error("pipeline: store rca report", zap.Error(err))
		result.Error = err.Error()
	} else {
		result.ReportDigest = digest
	}

	p.finishOrder(ctx, runID, orderID, rec, &result)
	return result
}

// putCanonical serializes v with the canonical encoder and stores the
// exact bytes that were digested.
func (p *Pipeline) putCanonical(ctx context.Context, v any) (string, error) {
	_, content, err := canonical.Digest(v)
	if err != nil {
		return "", err
	}
	return p.store.Put(ctx, content, contentTypeJSON)
}

// finishOrder stores the order's span log and indexes its spans when
// the backend keeps a run index.
func (p *Pipeline) finishOrder(ctx context.Context, runID, orderID string, rec *trace.Recorder, result *model.OrderResult) {
	logBytes, err := rec.Log()
	if err != nil {
		zap.L().Error("pipeline: span log serialization", zap.Error(err))
		return
	}
	digest, err := p.store.Put(ctx, logBytes, contentTypeJSON)
	if err != nil {
		zap.L().Error("pipeline: store span log", zap.Error(err))
		return
	}
	result.SpanDigest = digest

	if index, ok := p.store.(artifact.RunIndex); ok {
		if err := index.SaveSpans(ctx, runID, orderID, rec.Spans()); err != nil {
			zap.L().Warn("pipeline: index spans", zap.Error(err))
		}
	}
}

// persistRun stores the parse-stage span log and the run record.
func (p *Pipeline) persistRun(ctx context.Context, run *model.Run, parseRec *trace.Recorder) {
	if logBytes, err := parseRec.Log(); err == nil {
		if _, err := p.store.Put(ctx, logBytes, contentTypeJSON); err != nil {
			zap.L().Warn("pipeline: store parse span log", zap.Error(err))
		}
	}
	index, ok := p.store.(artifact.RunIndex)
	if !ok {
		return
	}
	if err := index.SaveRun(ctx, run); err != nil {
		zap.L().Warn("pipeline: save run", zap.Error(err))
	}
	if err := index.SaveSpans(ctx, run.ID, "", parseRec.Spans()); err != nil {
		zap.L().Warn("pipeline: index parse spans", zap.Error(err))
	}
}
