package testutil

import "github.com/tizenorg/profile.ivi.murphy-sub000/internal/admission"

// NewAdmissionMonitorForTest creates a ResourceMonitor seeded with safe CPU load for tests.
func NewAdmissionMonitorForTest(maxPool, gpuLimit int, cpuScale float64) *admission.ResourceMonitor {
	m := admission.NewResourceMonitor(maxPool, gpuLimit, cpuScale)
	m.ObserveCPULoad(0.1)
	return m
}
