package capability

import "testing"

func TestDetectIdempotent(t *testing.T) {
	var d Detector
	a := d.Detect()
	b := d.Detect()
	if a != b {
		t.Fatalf("snapshots differ across calls: %+v vs %+v", a, b)
	}
}

func TestDetectConsistency(t *testing.T) {
	var d Detector
	s := d.Detect()
	// The combined flag must be derived from its parts.
	if s.MultiThread && !(s.Threading && s.HardwareConcurrency > 1) {
		t.Fatalf("MultiThread set without support: %+v", s)
	}
	if s.Threading && !(s.SharedMemory && s.Atomics) {
		t.Fatalf("Threading set without primitives: %+v", s)
	}
	if s.HardwareConcurrency < 1 {
		t.Fatalf("HardwareConcurrency = %d", s.HardwareConcurrency)
	}
}

func TestResetForcesReprobe(t *testing.T) {
	var d Detector
	a := d.Detect()
	d.Reset()
	b := d.Detect()
	// Probing the same host must land on the same answer.
	if a != b {
		t.Fatalf("re-probe diverged: %+v vs %+v", a, b)
	}
}

func TestIsMultiThreadUsableOverride(t *testing.T) {
	var d Detector
	detected := d.Detect().MultiThread

	if got := d.IsMultiThreadUsable(nil); got != detected {
		t.Fatalf("nil override = %v, want detected %v", got, detected)
	}
	f, tr := false, true
	if d.IsMultiThreadUsable(&f) {
		t.Fatal("false override ignored")
	}
	if !d.IsMultiThreadUsable(&tr) {
		t.Fatal("true override ignored")
	}
}
