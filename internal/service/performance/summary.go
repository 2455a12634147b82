package performance

import (
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

// WriteSummary prints a clustering result as plain text: the tier
// distribution followed by each tier's members, best score first.
func WriteSummary(w io.Writer, resp *performance.ClusteringResponse) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Performance clustering %s .. %s\n", resp.AnalysisPeriod.DateFrom, resp.AnalysisPeriod.DateTo)
	fmt.Fprintf(&b, "Employees: %d  Skipped: %d  Silhouette: %.3f\n", resp.TotalUsers, len(resp.Skipped), resp.ModelAccuracy)
	if resp.SnapshotID != "" {
		fmt.Fprintf(&b, "Snapshot: %s\n", resp.SnapshotID)
	}

	byTier := make([][]performance.ClusterAssignment, len(resp.ClusterLabels))
	for _, r := range resp.Results {
		if r.Cluster >= 0 && r.Cluster < len(byTier) {
			byTier[r.Cluster] = append(byTier[r.Cluster], r)
		}
	}

	b.WriteString("\nDistribution:\n")
	for tier := len(byTier) - 1; tier >= 0; tier-- {
		share := 0.0
		if resp.TotalUsers > 0 {
			share = float64(len(byTier[tier])) / float64(resp.TotalUsers) * 100
		}
		fmt.Fprintf(&b, "  %-32s %3d (%.1f%%)\n", resp.ClusterLabels[tier], len(byTier[tier]), share)
	}

	for tier := len(byTier) - 1; tier >= 0; tier-- {
		if len(byTier[tier]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", resp.ClusterLabels[tier])
		for _, r := range byTier[tier] {
			fmt.Fprintf(&b, "  - %s (%s) score %.1f | attendance %.1f%% | punctuality %.1f%% | productivity %.1f%%\n",
				r.Name, r.WorkerID, r.PerformanceScore,
				r.Features.AttendanceRate, r.Features.PunctualityScore, r.Features.ProductivityScore)
		}
	}

	if len(resp.Skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		for _, s := range resp.Skipped {
			fmt.Fprintf(&b, "  - %s: %s\n", s.EmployeeID, s.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
