package admission

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/metrics"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Tier collapses resource.Privilege into the three preemption buckets the
// monitor reasons about: a surface held by a higher tier can always bump one
// held by a lower tier when the plane pool is exhausted.
type Tier int

const (
	TierCertified Tier = iota
	TierManufacturer
	TierSystem
)

func (t Tier) String() string {
	switch t {
	case TierCertified:
		return "certified"
	case TierManufacturer:
		return "manufacturer"
	case TierSystem:
		return "system"
	default:
		return "unknown"
	}
}

// TierFromPrivilege collapses the five-level privilege ladder to the three
// preemption tiers the monitor tracks.
func TierFromPrivilege(p resource.Privilege) Tier {
	switch {
	case p >= resource.PrivilegeSystem:
		return TierSystem
	case p >= resource.PrivilegeManufacturer:
		return TierManufacturer
	default:
		return TierCertified
	}
}

// AdmissionReason provides detailed failure taxonomy for metrics/headers. All
// values are lowercase for stable PromQL queries.
type AdmissionReason string

const (
	ReasonAdmitted     AdmissionReason = "admitted"
	ReasonPoolFull     AdmissionReason = "pool_full"
	ReasonPreempt      AdmissionReason = "preempt"
	ReasonPlanesBusy   AdmissionReason = "planes_busy"
	ReasonCPUSaturated AdmissionReason = "cpu_saturated"
	ReasonCPUUnknown   AdmissionReason = "cpu_unknown"
	ReasonInternalErr  AdmissionReason = "internal_error"
)

// ResourceMonitor gates creation of new screen surfaces against two kinds of
// system pressure that the engine's own grant/revoke arbitration never sees:
// a bounded pool of hardware overlay planes, and host CPU load. The engine
// still arbitrates priority among resources that were already admitted; this
// monitor decides whether a brand-new surface should be allowed to exist at
// all on constrained hardware.
type ResourceMonitor struct {
	activePlanes  int64
	mu            sync.RWMutex
	sessionIDs    map[Tier][]string
	maxPool       int64   // Maximum concurrent surfaces the compositor will track.
	planeLimit    int64   // Hardware overlay plane count.
	cpuThreshold  float64 // CPU load multiplier (cores * threshold)
	cores         float64
	cpuMu         sync.Mutex
	cpuSamples    []cpuSample
	cpuWindow     time.Duration
	cpuMinSamples int     // Minimum samples for a valid decision (fail-closed below this)
	cpuRatio      float64 // Ratio of samples over threshold to trigger block
	lastWarnAt    time.Time
	logger        zerolog.Logger
	clock         func() time.Time
}

type cpuSample struct {
	at   time.Time
	load float64
}

// NewResourceMonitor creates a ResourceMonitor with separate surface-pool and
// plane limits. maxPool bounds concurrently tracked surfaces; planeLimit
// bounds hardware overlay planes; cpuThresholdScale multiplies core count to
// get the CPU load ceiling (e.g. 1.5 = cores*1.5).
func NewResourceMonitor(maxPool, planeLimit int, cpuThresholdScale float64) *ResourceMonitor {
	if maxPool < 0 {
		maxPool = 2
	}
	if planeLimit < 0 {
		planeLimit = 8
	}
	if cpuThresholdScale <= 0 {
		cpuThresholdScale = 1.5
	}

	return &ResourceMonitor{
		maxPool:       int64(maxPool),
		planeLimit:    int64(planeLimit),
		cpuThreshold:  cpuThresholdScale,
		cores:         float64(runtime.NumCPU()),
		sessionIDs:    make(map[Tier][]string),
		cpuWindow:     30 * time.Second,
		cpuMinSamples: 15,
		cpuRatio:      0.5,
		logger:        zerolog.Nop(),
		clock:         time.Now,
	}
}

// SetLogger injects a logger into the ResourceMonitor for operational awareness.
func (m *ResourceMonitor) SetLogger(l zerolog.Logger) {
	m.logger = l
}

// CanAdmit evaluates current pressure against a surface creation request at
// tier t. Returns true if admitted, or false and a detailed reason.
func (m *ResourceMonitor) CanAdmit(ctx context.Context, t Tier) (bool, AdmissionReason) {
	active := m.TotalActiveSessions()

	if active >= m.maxPool {
		if t > TierCertified && m.hasPreemptibleSession(t) {
			return true, ReasonPreempt
		}
		return false, ReasonPoolFull
	}

	if atomic.LoadInt64(&m.activePlanes) >= m.planeLimit {
		if t == TierCertified {
			return false, ReasonPlanesBusy
		}
		// Manufacturer/system tiers may still proceed; the engine's own
		// revoke path makes room for them at commit time.
	}

	if ok, reason := m.cpuWithinLimits(); !ok {
		return false, reason
	}

	return true, ReasonAdmitted
}

// ObserveCPULoad records a CPU load sample for rolling-window admission checks.
func (m *ResourceMonitor) ObserveCPULoad(load float64) {
	m.observeCPULoadAt(load, m.clock())
}

func (m *ResourceMonitor) observeCPULoadAt(load float64, at time.Time) {
	if math.IsNaN(load) || math.IsInf(load, 0) || load < 0 {
		return
	}
	m.cpuMu.Lock()
	defer m.cpuMu.Unlock()

	m.cpuSamples = append(m.cpuSamples, cpuSample{at: at, load: load})
	m.pruneCPUSamplesLocked(at)
}

func (m *ResourceMonitor) cpuWithinLimits() (bool, AdmissionReason) {
	m.cpuMu.Lock()
	defer m.cpuMu.Unlock()

	now := m.clock()
	m.pruneCPUSamplesLocked(now)

	if len(m.cpuSamples) < m.cpuMinSamples {
		if now.Sub(m.lastWarnAt) >= 1*time.Minute {
			m.lastWarnAt = now
			m.logger.Warn().
				Int("samples", len(m.cpuSamples)).
				Int("min_needed", m.cpuMinSamples).
				Msg("CPU data insufficient, failing closed")
		}
		return false, ReasonCPUUnknown
	}

	threshold := m.cores * m.cpuThreshold
	var overCount int
	for _, s := range m.cpuSamples {
		if s.load >= threshold {
			overCount++
		}
	}

	ratio := float64(overCount) / float64(len(m.cpuSamples))
	if ratio >= m.cpuRatio {
		if now.Sub(m.lastWarnAt) >= 1*time.Minute {
			m.lastWarnAt = now
			m.logger.Warn().
				Float64("ratio", ratio).
				Float64("threshold", threshold).
				Msg("admission blocked: CPU pressure exceeded threshold")
		}
		return false, ReasonCPUSaturated
	}

	return true, ReasonAdmitted
}

func (m *ResourceMonitor) cpuAverage(now time.Time) (float64, bool) {
	m.cpuMu.Lock()
	defer m.cpuMu.Unlock()

	m.pruneCPUSamplesLocked(now)
	if len(m.cpuSamples) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range m.cpuSamples {
		sum += s.load
	}
	return sum / float64(len(m.cpuSamples)), true
}

func (m *ResourceMonitor) pruneCPUSamplesLocked(now time.Time) {
	cutoff := now.Add(-m.cpuWindow)
	keep := m.cpuSamples[:0]
	for _, s := range m.cpuSamples {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	m.cpuSamples = keep
}

// AcquirePlane reserves one hardware overlay plane.
func (m *ResourceMonitor) AcquirePlane() bool {
	for {
		current := atomic.LoadInt64(&m.activePlanes)
		if current >= m.planeLimit {
			return false
		}
		if atomic.CompareAndSwapInt64(&m.activePlanes, current, current+1) {
			metrics.SetPlaneTokensInUse(float64(current + 1))
			return true
		}
	}
}

// ReleasePlane returns one hardware overlay plane to the pool.
func (m *ResourceMonitor) ReleasePlane() {
	newVal := atomic.AddInt64(&m.activePlanes, -1)
	metrics.SetPlaneTokensInUse(float64(newVal))
}

func (m *ResourceMonitor) TrackSessionStart(t Tier, sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionIDs[t] = append(m.sessionIDs[t], sid)
	metrics.SetActiveSessions(t.String(), float64(len(m.sessionIDs[t])))
}

func (m *ResourceMonitor) TrackSessionEnd(t Tier, sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.sessionIDs[t]
	for i, id := range ids {
		if id == sid {
			m.sessionIDs[t] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	metrics.SetActiveSessions(t.String(), float64(len(m.sessionIDs[t])))
}

func (m *ResourceMonitor) TotalActiveSessions() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for i := TierCertified; i <= TierSystem; i++ {
		total += int64(len(m.sessionIDs[i]))
	}
	return total
}

func (m *ResourceMonitor) hasPreemptibleSession(t Tier) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := TierCertified; i < t; i++ {
		if len(m.sessionIDs[i]) > 0 {
			return true
		}
	}
	return false
}

// SelectPreemptionTarget returns the lowest-tier session ID that can be
// preempted to admit a surface at tier t.
func (m *ResourceMonitor) SelectPreemptionTarget(t Tier) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := TierCertified; i < t; i++ {
		ids := m.sessionIDs[i]
		if len(ids) > 0 {
			return ids[0], true
		}
	}
	return "", false
}

// GetMaxPool returns the maximum tracked-surface pool size.
func (m *ResourceMonitor) GetMaxPool() int64 {
	return m.maxPool
}

// GetPlaneLimit returns the hardware overlay plane limit.
func (m *ResourceMonitor) GetPlaneLimit() int64 {
	return m.planeLimit
}
