package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.now = func() time.Time { return time.Unix(1_772_000_000, 0) }

	m.ObserveRun("overdue-sales", 250*time.Millisecond, nil)
	m.ObserveRun("overdue-sales", time.Second, errors.New("db down"))
	m.Skipped("overdue-sales")
	m.Skipped("overdue-sales")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	want := map[string]float64{CronSucceeded: 1, CronFailed: 1, CronSkipped: 2}
	for outcome, n := range want {
		if got := sumMatching(findMetricFamily(mfs, "cron_job_runs_total"), map[string]string{"job": "overdue-sales", "outcome": outcome}); got != n {
			t.Fatalf("%s: expected %v, got %v", outcome, n, got)
		}
	}

	hist := findMetricFamily(mfs, "cron_job_duration_seconds")
	if hist == nil || hist.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected two duration samples, got %v", hist)
	}
	last := findMetricFamily(mfs, "cron_job_last_success_timestamp_seconds")
	if last == nil || last.GetMetric()[0].GetGauge().GetValue() != 1_772_000_000 {
		t.Fatalf("unexpected last success gauge %v", last)
	}
}

func TestNilCronJobMetricsIsNoop(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, nil)
	m.Skipped("job")
	NewCronJobMetrics(nil).ObserveRun("", time.Second, errors.New("x"))
}

// sumMatching adds counter values of every series in mf carrying all labels.
func sumMatching(mf *dto.MetricFamily, labels map[string]string) float64 {
	if mf == nil {
		return 0
	}
	total := 0.0
	for _, metric := range mf.GetMetric() {
		matched := 0
		for _, pair := range metric.GetLabel() {
			if v, ok := labels[pair.GetName()]; ok && v == pair.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
