package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-statement-normalizer/internal/models"
)

// counterValue sums the counter samples of family name whose labels
// include every pair in want
func counterValue(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
				}
			}
			if match {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestObserveOutcome(t *testing.T) {
	m := New()

	outcome := models.NewExtractionOutcome("s.pdf", "pdf")
	outcome.Diagnostics.Duration = 150 * time.Millisecond
	outcome.Diagnostics.AddUnit(models.UnitDiagnostics{Kind: models.UnitTable, Strategy: "table", Accepted: 4, Rejected: 1})
	outcome.Diagnostics.AddUnit(models.UnitDiagnostics{Kind: models.UnitPage, Strategy: "loose", Accepted: 2, Rejected: 3})
	m.ObserveOutcome(outcome)
	m.ObserveFailure("", 10*time.Millisecond)

	assert.Equal(t, 1.0, counterValue(t, m, "normalizer_files_processed_total", map[string]string{"format": "pdf", "status": StatusSuccess}))
	assert.Equal(t, 1.0, counterValue(t, m, "normalizer_files_processed_total", map[string]string{"format": "unknown", "status": StatusFailure}))
	assert.Equal(t, 4.0, counterValue(t, m, "normalizer_transactions_extracted_total", map[string]string{"strategy": "table"}))
	assert.Equal(t, 2.0, counterValue(t, m, "normalizer_transactions_extracted_total", map[string]string{"strategy": "loose"}))
	assert.Equal(t, 4.0, counterValue(t, m, "normalizer_rows_rejected_total", map[string]string{"format": "pdf"}))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFailure("csv", time.Millisecond)

	path := filepath.Join(t.TempDir(), "normalizer.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `normalizer_files_processed_total{format="csv",status="failure"} 1`)
	assert.Contains(t, string(content), "normalizer_extraction_duration_seconds_bucket")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOutcome(models.NewExtractionOutcome("x.csv", "csv"))
	m.ObserveFailure("csv", time.Second)
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
	assert.Nil(t, m.Registry())
}
