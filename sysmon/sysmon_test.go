package sysmon

import (
	"errors"
	"testing"
)

type fakeShedder struct {
	shrinks int
	relaxes int
}

func (f *fakeShedder) ShrinkMemory() { f.shrinks++ }
func (f *fakeShedder) RelaxMemory() { f.relaxes++ }

func newTestMonitor(shedder *fakeShedder, samples []float64) *Monitor {
	m := New(shedder, nil, nil, WithThresholds(90, 80))
	i := 0
	m.sample = func() (float64, error) {
		if i >= len(samples) {
			return samples[len(samples)-1], nil
		}
		v := samples[i]
		i++
		return v, nil
	}
	return m
}

func TestMonitorShedsOnceAboveCritical(t *testing.T) {
	shedder := &fakeShedder{}
	m := newTestMonitor(shedder, []float64{50, 92, 95, 93})
	for i := 0; i < 4; i++ {
		m.check()
	}
	if shedder.shrinks != 1 {
		t.Fatalf("shrinks = %d, want 1 (no repeat while critical)", shedder.shrinks)
	}
	if shedder.relaxes != 0 {
		t.Fatalf("relaxes = %d, want 0", shedder.relaxes)
	}
}

func TestMonitorRelaxesAfterRecovery(t *testing.T) {
	shedder := &fakeShedder{}
	m := newTestMonitor(shedder, []float64{95, 85, 79, 60})
	for i := 0; i < 4; i++ {
		m.check()
	}
	if shedder.shrinks != 1 {
		t.Fatalf("shrinks = %d", shedder.shrinks)
	}
	// 85 sits in the hysteresis band; only 79 relaxes.
	if shedder.relaxes != 1 {
		t.Fatalf("relaxes = %d, want 1", shedder.relaxes)
	}
}

func TestMonitorReshedsAfterRelapse(t *testing.T) {
	shedder := &fakeShedder{}
	m := newTestMonitor(shedder, []float64{95, 70, 95})
	for i := 0; i < 3; i++ {
		m.check()
	}
	if shedder.shrinks != 2 || shedder.relaxes != 1 {
		t.Fatalf("shrinks = %d relaxes = %d", shedder.shrinks, shedder.relaxes)
	}
}

func TestMonitorIgnoresSampleErrors(t *testing.T) {
	shedder := &fakeShedder{}
	m := New(shedder, nil, nil)
	m.sample = func() (float64, error) { return 0, errors.New("no procfs") }
	m.check()
	if shedder.shrinks != 0 || shedder.relaxes != 0 {
		t.Fatal("sample error changed shed state")
	}
}
