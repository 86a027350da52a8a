// Package capability probes the host for the primitives multi-threaded
// encoding depends on. Detection runs once per process and the snapshot is
// treated as immutable until an explicit Reset.
package capability

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot is an immutable record of the host's execution capabilities.
type Snapshot struct {
	SharedMemory bool `json:"sharedMemory"`
	Atomics      bool `json:"atomics"`
	Threading    bool `json:"threading"`

	// MultiThread is the combined flag: all primitives functional and more
	// than one hardware thread available.
	MultiThread bool `json:"multiThread"`

	HardwareConcurrency int `json:"hardwareConcurrency"`
	TotalMemoryMB       int `json:"totalMemoryMb"` // advisory, 0 when probing failed
}

// Detector computes and caches a Snapshot. The zero value is ready to use.
type Detector struct {
	mu   sync.Mutex
	snap *Snapshot
}

var std Detector

// Detect probes the host on first call and returns the cached snapshot on
// subsequent calls. It never fails: any probe error degrades the affected
// field to its unsupported value.
func Detect() Snapshot { return std.Detect() }

// Reset discards the process-wide snapshot, forcing re-detection.
func Reset() { std.Reset() }

// IsMultiThreadUsable resolves the threading decision for the process-wide
// detector. See Detector.IsMultiThreadUsable.
func IsMultiThreadUsable(override *bool) bool { return std.IsMultiThreadUsable(override) }

// Detect returns the cached snapshot, probing on first use.
func (d *Detector) Detect() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap == nil {
		s := probe()
		d.snap = &s
	}
	return *d.snap
}

// Reset clears the cached snapshot so the next Detect probes again.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.snap = nil
	d.mu.Unlock()
}

// IsMultiThreadUsable resolves precedence between an explicit caller
// override and the detected snapshot: a non-nil override wins outright,
// nil defers to the snapshot's combined flag.
func (d *Detector) IsMultiThreadUsable(override *bool) bool {
	if override != nil {
		return *override
	}
	return d.Detect().MultiThread
}

func probe() Snapshot {
	var s Snapshot
	s.SharedMemory, s.Atomics = probeAtomics()
	s.HardwareConcurrency = probeConcurrency()
	s.Threading = s.SharedMemory && s.Atomics && probeThreading()
	s.MultiThread = s.Threading && s.HardwareConcurrency > 1
	s.TotalMemoryMB = probeMemoryMB()
	return s
}

// probeAtomics is a functional test, not a feature check: it performs an
// atomic store from one goroutine and verifies the round-tripped value from
// another through shared memory.
func probeAtomics() (shared, atomics bool) {
	defer func() {
		if recover() != nil {
			shared, atomics = false, false
		}
	}()
	var slot atomic.Int64
	done := make(chan struct{})
	go func() {
		slot.Store(0x76696432) // arbitrary sentinel
		close(done)
	}()
	<-done
	return true, slot.Load() == 0x76696432
}

// probeThreading verifies that concurrent goroutines observe a consistent
// shared counter, i.e. parallel execution with shared state actually works.
func probeThreading() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	const workers = 4
	const perWorker = 1000
	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				counter.Add(1)
			}
		}()
	}
	wg.Wait()
	return counter.Load() == workers*perWorker
}

func probeConcurrency() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func probeMemoryMB() int {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return 0
	}
	return int(vm.Total / (1024 * 1024))
}
