package memcontrol

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
)

type MemoryLevel int

const (
	MemoryNormal MemoryLevel = iota
	MemoryWarning
	MemoryCritical
	MemoryEmergency
)

func (ml MemoryLevel) String() string {
	switch ml {
	case MemoryNormal:
		return "NORMAL"
	case MemoryWarning:
		return "WARNING"
	case MemoryCritical:
		return "CRITICAL"
	case MemoryEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

type MemoryStats struct {
	HeapAllocMB  uint64
	SysMB        uint64
	NumGC        uint32
	UsagePercent float64
	Level        MemoryLevel
	Timestamp    time.Time
}

// Controller watches heap usage against a configured ceiling and reports a
// pressure level. The capture loop consults ThrottleDelay to slow down or
// pause grabbing frames when the device runs hot.
type Controller struct {
	mu           sync.RWMutex
	maxMemoryMB  uint64
	currentLevel MemoryLevel
	stats        MemoryStats
	onLevel      func(MemoryLevel, MemoryStats)
	lastGC       time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController sizes the ceiling from the host when maxMemoryMB is zero.
func NewController(maxMemoryMB uint64) *Controller {
	if maxMemoryMB == 0 {
		if vm, err := mem.VirtualMemory(); err == nil {
			maxMemoryMB = vm.Total / 1024 / 1024 / 4
		}
		if maxMemoryMB < 256 {
			maxMemoryMB = 256
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		maxMemoryMB:  maxMemoryMB,
		currentLevel: MemoryNormal,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// OnLevelChange registers a callback invoked whenever the pressure level
// moves.
func (c *Controller) OnLevelChange(fn func(MemoryLevel, MemoryStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLevel = fn
}

// Start begins the periodic check loop.
func (c *Controller) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.check()
			}
		}
	}()
}

func (c *Controller) check() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	allocMB := ms.HeapAlloc / 1024 / 1024
	usage := float64(allocMB) / float64(c.maxMemoryMB) * 100

	level := MemoryNormal
	switch {
	case usage >= 85:
		level = MemoryEmergency
	case usage >= 75:
		level = MemoryCritical
	case usage >= 60:
		level = MemoryWarning
	}

	stats := MemoryStats{
		HeapAllocMB:  allocMB,
		SysMB:        ms.Sys / 1024 / 1024,
		NumGC:        ms.NumGC,
		UsagePercent: usage,
		Level:        level,
		Timestamp:    time.Now(),
	}

	metrics.MemoryAllocMB.Set(float64(allocMB))
	metrics.MemoryUsagePercent.Set(usage)
	metrics.MemoryLevel.Set(float64(level))

	c.mu.Lock()
	changed := level != c.currentLevel
	c.currentLevel = level
	c.stats = stats
	callback := c.onLevel
	c.mu.Unlock()

	if level >= MemoryCritical && time.Since(c.lastGC) > 30*time.Second {
		runtime.GC()
		c.lastGC = time.Now()
		metrics.MemoryGCCount.Inc()
	}

	if changed {
		logger.Log.Infow("Memory pressure level change",
			"level", level.String(),
			"heap_alloc_mb", allocMB,
			"usage_percent", usage)
		if callback != nil {
			callback(level, stats)
		}
	}
}

// ThrottleDelay maps the current level to an extra delay the capture loop
// inserts between frames. Emergency pauses capture entirely (the caller
// checks Paused).
func (c *Controller) ThrottleDelay() time.Duration {
	switch c.Level() {
	case MemoryWarning:
		return 500 * time.Millisecond
	case MemoryCritical:
		return 2 * time.Second
	case MemoryEmergency:
		return 10 * time.Second
	default:
		return 0
	}
}

// Paused reports whether capture should stop submitting frames.
func (c *Controller) Paused() bool {
	return c.Level() == MemoryEmergency
}

func (c *Controller) Level() MemoryLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentLevel
}

func (c *Controller) Stats() MemoryStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Controller) Stop() {
	c.cancel()
}
