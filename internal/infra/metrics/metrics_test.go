//go:build !integration

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDispatch_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(dispatchRequests.WithLabelValues("chat", "http_error"))
	ObserveDispatch(" Chat ", "HTTP_ERROR", 120*time.Millisecond)
	after := testutil.ToFloat64(dispatchRequests.WithLabelValues("chat", "http_error"))
	if after-before != 1 {
		t.Fatalf("expected one http_error observation, got delta %v", after-before)
	}
}

func TestSessionCounters(t *testing.T) {
	before := testutil.ToFloat64(transcriptMessages.WithLabelValues("assistant"))
	IncMessage("assistant")
	IncMessage("assistant")
	if d := testutil.ToFloat64(transcriptMessages.WithLabelValues("assistant")) - before; d != 2 {
		t.Fatalf("expected 2 assistant messages, got %v", d)
	}

	rb := testutil.ToFloat64(submissionsRejected.WithLabelValues("pending"))
	IncRejected("pending")
	if d := testutil.ToFloat64(submissionsRejected.WithLabelValues("pending")) - rb; d != 1 {
		t.Fatalf("expected 1 rejection, got %v", d)
	}
}

func TestMustRegister_Idempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestRegisterWith_SkipsDuplicates(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterWith(reg); err != nil {
		t.Fatalf("first RegisterWith: %v", err)
	}
	if err := RegisterWith(reg); err != nil {
		t.Fatalf("second RegisterWith should skip duplicates, got %v", err)
	}
}

func TestSetBuildInfo_DefaultsToDev(t *testing.T) {
	SetBuildInfo("buddy", "", "")
	if got := testutil.ToFloat64(buildInfo.WithLabelValues("buddy", "dev", "dev")); got != 1 {
		t.Fatalf("build_info = %v", got)
	}
}

func TestAddSessionsEvicted_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(sessionsEvicted)
	AddSessionsEvicted(0)
	AddSessionsEvicted(3)
	if d := testutil.ToFloat64(sessionsEvicted) - before; d != 3 {
		t.Fatalf("expected 3 evictions, got %v", d)
	}
}
