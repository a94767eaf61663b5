package admission

import (
	"context"
	"testing"
)

func TestResourceMonitor_PlaneAdmission(t *testing.T) {
	m := NewResourceMonitor(2, 8, 1.5) // maxPool=2, planeLimit=8
	for i := 0; i < 20; i++ {
		m.ObserveCPULoad(0.1)
	}

	// 1. Admit first two
	if ok, _ := m.CanAdmit(context.Background(), TierManufacturer); !ok {
		t.Fatal("Should admit first manufacturer-tier surface")
	}
	m.TrackSessionStart(TierManufacturer, "s1")
	m.AcquirePlane()

	if ok, _ := m.CanAdmit(context.Background(), TierManufacturer); !ok {
		t.Fatal("Should admit second manufacturer-tier surface")
	}
	m.TrackSessionStart(TierManufacturer, "s2")
	m.AcquirePlane()

	// 3. Reject certified at pool limit (pool full, no preemptible lower tier)
	if ok, reason := m.CanAdmit(context.Background(), TierCertified); ok {
		t.Fatal("Should reject certified tier when pool limit reached")
	} else if reason != ReasonPoolFull {
		t.Fatalf("Expected PoolFull reason, got %v", reason)
	}

	// 4. Release session and plane, then check
	m.TrackSessionEnd(TierManufacturer, "s2")
	m.ReleasePlane()
	if ok, _ := m.CanAdmit(context.Background(), TierCertified); !ok {
		t.Fatal("Should admit certified tier after session release")
	}
}

func TestResourceMonitor_TierOrdering(t *testing.T) {
	if TierSystem <= TierManufacturer {
		t.Error("System tier must be > Manufacturer")
	}
	if TierManufacturer <= TierCertified {
		t.Error("Manufacturer tier must be > Certified")
	}
}

func TestResourceMonitor_PlaneCleanup(t *testing.T) {
	m := NewResourceMonitor(8, 1, 1.5) // maxPool=8, planeLimit=1
	for i := 0; i < 20; i++ {
		m.ObserveCPULoad(0.1)
	}

	if !m.AcquirePlane() {
		t.Fatal("Should acquire plane")
	}

	if m.AcquirePlane() {
		t.Fatal("Should not acquire second plane")
	}

	m.ReleasePlane()

	if !m.AcquirePlane() {
		t.Fatal("Should re-acquire plane after release")
	}
}

func TestResourceMonitor_SystemTierAdmission(t *testing.T) {
	m := NewResourceMonitor(4, 8, 1.5) // maxPool=4, planeLimit=8
	for i := 0; i < 20; i++ {
		m.ObserveCPULoad(0.1)
	}

	// 1. Fill 4 sessions at manufacturer tier
	for i := 0; i < 4; i++ {
		m.TrackSessionStart(TierManufacturer, "m"+string(rune(i)))
	}

	// 2. Reject another manufacturer-tier surface (pool full, no preemptible)
	if ok, reason := m.CanAdmit(context.Background(), TierManufacturer); ok {
		t.Fatal("Should reject manufacturer tier when pool full")
	} else if reason != ReasonPoolFull {
		t.Fatalf("Expected PoolFull reason, got %v", reason)
	}

	// 3. Admit system tier via preemption
	if ok, _ := m.CanAdmit(context.Background(), TierSystem); !ok {
		t.Fatal("Should admit system tier when preemption is possible")
	}
}

func TestResourceMonitor_PreemptionPredicates(t *testing.T) {
	m := NewResourceMonitor(8, 8, 1.5) // maxPool=8, planeLimit=8
	for i := 0; i < 20; i++ {
		m.ObserveCPULoad(0.1)
	}

	// Certified < Manufacturer < System
	m.TrackSessionStart(TierCertified, "c1")
	m.TrackSessionStart(TierManufacturer, "m1")

	// System should find Certified as best target
	id, ok := m.SelectPreemptionTarget(TierSystem)
	if !ok || id != "c1" {
		t.Fatalf("Expected c1 target, got %v (ok=%v)", id, ok)
	}

	// Clean Certified
	m.TrackSessionEnd(TierCertified, "c1")

	// System should find Manufacturer as best target
	id, ok = m.SelectPreemptionTarget(TierSystem)
	if !ok || id != "m1" {
		t.Fatalf("Expected m1 target, got %v (ok=%v)", id, ok)
	}
}
