package progress

import "testing"

func TestSequencerMonotonicPercent(t *testing.T) {
	s := NewSequencer()
	if _, p := s.Next(StageProcessing, 40); p != 40 {
		t.Fatalf("p = %v, want 40", p)
	}
	// A regressing sample is pinned to the prior percent.
	if _, p := s.Next(StageProcessing, 30); p != 40 {
		t.Fatalf("regressed to %v", p)
	}
	if _, p := s.Next(StageProcessing, 55); p != 55 {
		t.Fatalf("p = %v, want 55", p)
	}
}

func TestSequencerStagesOnlyAdvance(t *testing.T) {
	s := NewSequencer()
	s.Next(StageProcessing, 50)
	// A late sample from an earlier stage is rewritten to the furthest
	// stage seen, not dropped.
	st, p := s.Next(StageAnalyzing, 10)
	if st != StageProcessing {
		t.Fatalf("stage regressed to %s", st)
	}
	if p != 50 {
		t.Fatalf("percent regressed to %v", p)
	}
}

func TestSequencerUnknownPercentHolds(t *testing.T) {
	s := NewSequencer()
	s.Next(StageProcessing, 62)
	if _, p := s.Next(StageProcessing, -1); p != 62 {
		t.Fatalf("unknown percent produced %v", p)
	}
}

func TestSequencerFreeze(t *testing.T) {
	s := NewSequencer()
	s.Next(StageProcessing, 45)
	s.Freeze()
	st, p := s.Next(StageError, 100)
	if p != 45 {
		t.Fatalf("frozen percent advanced to %v", p)
	}
	// Stage transitions still flow through so a cancelled run can report
	// its terminal stage.
	if st != StageError {
		t.Fatalf("terminal stage lost: %s", st)
	}
	if s.Percent() != 45 {
		t.Fatalf("Percent() = %v", s.Percent())
	}
}

func TestSequencerTerminalStagesShareSlot(t *testing.T) {
	s := NewSequencer()
	s.Next(StageCompleted, 100)
	if st, _ := s.Next(StageError, 100); st != StageError {
		t.Fatalf("terminal stage rewritten to %s", st)
	}
}

func TestIndex(t *testing.T) {
	seq := []Stage{StageLoading, StageAnalyzing, StageProcessing, StageFinalizing, StageCompleted}
	for i := 1; i < len(seq); i++ {
		if Index(seq[i-1]) > Index(seq[i]) {
			t.Fatalf("%s ordered after %s", seq[i-1], seq[i])
		}
	}
	if Index(Stage("bogus")) != -1 {
		t.Fatal("unknown stage must index to -1")
	}
}
