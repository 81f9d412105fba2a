// Package output renders pricing results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// PrettyRecommendation outputs a recommendation as a human-readable report.
func PrettyRecommendation(w io.Writer, rec pricing.Recommendation) {
	p := printer()
	title := "--- Price recommendation ---"
	if rec.Cached {
		title = "--- Price recommendation (cached) ---"
	}
	_, _ = p.Fprintf(w, "%s\n", title)
	_, _ = p.Fprintf(w, "Floor      | $%.2f\n", rec.Floor)
	_, _ = p.Fprintf(w, "Target     | $%.2f\n", rec.Target)
	_, _ = p.Fprintf(w, "Stretch    | $%.2f\n", rec.Stretch)
	_, _ = p.Fprintf(w, "Win prob.  | %.1f%%\n", rec.PWinAtTarget*100)
	_, _ = p.Fprintf(w, "Confidence | %s\n", rec.ConfidenceScore)

	section(w, "Reasons", rec.Reasons)
	section(w, "Policy", rec.AgentInsights.Rules)
	section(w, "Win rate", rec.AgentInsights.WinRate)
	section(w, "Elasticity", rec.AgentInsights.Elasticity)
	section(w, "Insights", rec.AgentInsights.Explanation)
	section(w, "Recommendations", rec.Recommendations)
	section(w, "Talking points", rec.TalkingPoints)
}

// PrettyScore outputs a score result.
func PrettyScore(w io.Writer, price float64, res pricing.ScoreResult) {
	p := printer()
	_, _ = p.Fprintf(w, "--- Score at $%.2f ---\n", price)
	_, _ = p.Fprintf(w, "Win prob.       | %.1f%%\n", res.PWin*100)
	_, _ = p.Fprintf(w, "Expected margin | $%.2f\n", res.ExpectedMargin)
	_, _ = p.Fprintf(w, "Approval        | %s\n", res.ApprovalBand)
	section(w, "Reasons", res.Reasons)
}

// PrettyCurve outputs the win probability at each price.
func PrettyCurve(w io.Writer, points []pricing.CurvePoint) {
	p := printer()
	_, _ = fmt.Fprintf(w, "Price        | Win prob.\n")
	_, _ = fmt.Fprintf(w, "_____        | _________\n")
	for _, pt := range points {
		_, _ = p.Fprintf(w, "$%-11.2f | %8.1f%%\n", pt.Price, pt.PWin*100)
	}
}

// PrettyDemandCurve outputs estimated quantity and revenue per price.
func PrettyDemandCurve(w io.Writer, points []pricing.DemandPoint) {
	p := printer()
	_, _ = fmt.Fprintf(w, "Price        | Quantity | Revenue\n")
	_, _ = fmt.Fprintf(w, "_____        | ________ | _______\n")
	for _, pt := range points {
		_, _ = p.Fprintf(w, "$%-11.2f | %8.1f | $%.2f\n", pt.Price, pt.Quantity, pt.Revenue)
	}
}

// PrettyComparison outputs two scenarios and the summary sentence.
func PrettyComparison(w io.Writer, cmp orchestrator.Comparison) {
	p := printer()
	_, _ = p.Fprintf(w, "From $%.2f: %.1f%% win probability\n", cmp.From.TargetPrice, cmp.From.WinProbability*100)
	_, _ = p.Fprintf(w, "To   $%.2f: %.1f%% win probability\n", cmp.To.TargetPrice, cmp.To.WinProbability*100)
	_, _ = fmt.Fprintln(w, cmp.Summary)
}

// PrettyBatch outputs one line per batch item followed by totals.
func PrettyBatch(w io.Writer, res orchestrator.BatchResult) {
	p := printer()
	_, _ = fmt.Fprintf(w, "--- Batch %s ---\n", res.JobID)
	_, _ = fmt.Fprintf(w, "#    | SKU          | Customer     | Target       | Confidence\n")
	for _, item := range res.Items {
		if item.Error != "" {
			_, _ = p.Fprintf(w, "%-4d | %-12s | %-12s | error: %s\n", item.Index, item.Request.SKU, item.Request.CustomerID, item.Error)
			continue
		}
		_, _ = p.Fprintf(w, "%-4d | %-12s | %-12s | $%-11.2f | %s\n",
			item.Index, item.Request.SKU, item.Request.CustomerID, item.Recommendation.Target, item.Recommendation.ConfidenceScore)
	}
	_, _ = p.Fprintf(w, "Completed %d, failed %d in %dms\n", res.Completed, res.Failed, res.ProcessingMillis)
}

// PrettyTraining outputs holdout metrics and the strongest features.
func PrettyTraining(w io.Writer, m winmodel.Metrics, top []winmodel.Importance) {
	p := printer()
	_, _ = fmt.Fprintf(w, "--- Win-rate model ---\n")
	_, _ = p.Fprintf(w, "Rows     | %d train, %d test\n", m.TrainRows, m.TestRows)
	_, _ = p.Fprintf(w, "Win rate | %.1f%%\n", m.WinRate*100)
	_, _ = p.Fprintf(w, "AUC      | %.3f\n", m.AUC)
	_, _ = p.Fprintf(w, "Accuracy | %.3f\n", m.Accuracy)
	if len(top) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\nTop features:\n")
	for _, imp := range top {
		_, _ = p.Fprintf(w, "  %-20s %.3f\n", imp.Feature, imp.Weight)
	}
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s:\n", title)
	for _, line := range lines {
		_, _ = fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(line))
	}
}
