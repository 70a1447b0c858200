// Package rca evaluates an ordered set of deterministic rules against
// a canonical order and its ETA delta, producing ranked incident
// findings with explanations.
package rca

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/orderops/internal/model"
)

// Engine runs the fixed rule list under one configuration.
type Engine struct {
	cfg   Config
	rules []Rule
}

// New builds an engine with the public rule order and the given
// config.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, rules: Rules()}
}

// Analyze evaluates every enabled rule. delta may be nil when
// reconciliation failed; rules that need it simply don't fire. The
// result is sorted deterministically: severity descending, then rule
// number, then order id.
func (e *Engine) Analyze(order *model.CanonicalOrder, delta *model.ETADelta) []model.Incident {
	var incidents []model.Incident
	for _, rule := range e.rules {
		if !e.cfg.enabled(rule.Kind) {
			continue
		}
		incident := rule.Eval(order, delta, e.cfg)
		if incident == nil {
			continue
		}
		incident.Rule = rule.Num
		incidents = append(incidents, *incident)
	}

	sort.SliceStable(incidents, func(i, j int) bool {
		a, b := incidents[i], incidents[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.OrderID < b.OrderID
	})

	zap.L().Debug("rca: analysis complete",
		zap.String("order_id", order.OrderID.Value),
		zap.Int("incidents", len(incidents)),
	)
	return incidents
}

// Report assembles the RCA report for one order.
func (e *Engine) Report(order *model.CanonicalOrder, delta *model.ETADelta, reconcileErr error) *model.Report {
	report := &model.Report{
		OrderID:   order.OrderID.Value,
		ETADelta:  delta,
		Incidents: e.Analyze(order, delta),
	}
	if report.Incidents == nil {
		report.Incidents = []model.Incident{} // reports always carry the list
	}
	if reconcileErr != nil {
		report.ReconcileError = reconcileErr.Error()
	}
	return report
}
