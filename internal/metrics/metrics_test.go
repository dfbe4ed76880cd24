// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func TestRecordCodecNegotiation_EmptyIsNone(t *testing.T) {
	initial := getCounterVecValue(t, codecNegotiations, "none")
	RecordCodecNegotiation("")
	if got := getCounterVecValue(t, codecNegotiations, "none"); got != initial+1 {
		t.Fatalf("expected none counter to increase by 1, got initial=%v actual=%v", initial, got)
	}
}

func TestRecordExportAttempt(t *testing.T) {
	initial := getCounterVecValue(t, exportAttempts, "native_share", "succeeded")
	RecordExportAttempt("native_share", "succeeded")
	if got := getCounterVecValue(t, exportAttempts, "native_share", "succeeded"); got != initial+1 {
		t.Fatalf("expected attempt counter to increase by 1, got initial=%v actual=%v", initial, got)
	}
}

func TestAddRecordedBytes_IgnoresNonPositive(t *testing.T) {
	metric := &dto.Metric{}
	if err := recordedBytes.Write(metric); err != nil {
		t.Fatal(err)
	}
	initial := metric.GetCounter().GetValue()

	AddRecordedBytes(0)
	AddRecordedBytes(-5)
	AddRecordedBytes(60)

	if got := getCounterValue(t, recordedBytes); got != initial+60 {
		t.Fatalf("expected +60 bytes, got initial=%v actual=%v", initial, got)
	}
}

func TestSetBreakerState_OneHot(t *testing.T) {
	SetBreakerState("export.native_share", "open")
	if v := getGaugeValue(t, breakerState.WithLabelValues("export.native_share", "open")); v != 1 {
		t.Fatalf("expected open=1, got %v", v)
	}
	if v := getGaugeValue(t, breakerState.WithLabelValues("export.native_share", "closed")); v != 0 {
		t.Fatalf("expected closed=0, got %v", v)
	}
}

func TestRecordBreakerRejection(t *testing.T) {
	c := breakerRejections.WithLabelValues("export.platform_save")
	initial := getCounterValue(t, c)
	RecordBreakerRejection("export.platform_save")
	if got := getCounterValue(t, c); got != initial+1 {
		t.Fatalf("expected one rejection, got initial=%v actual=%v", initial, got)
	}
}

func TestSetTrackedHandles(t *testing.T) {
	SetTrackedHandles(3)
	if v := getGaugeValue(t, trackedHandles); v != 3 {
		t.Fatalf("expected 3 tracked handles, got %v", v)
	}
}
