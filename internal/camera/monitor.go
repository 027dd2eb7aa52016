package camera

import (
	"sync"
	"time"

	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
)

// Status describes the health of the camera feed.
type Status struct {
	CameraID              string    `json:"camera_id"`
	IsActive              bool      `json:"is_active"`
	LastSuccessfulCapture time.Time `json:"last_successful_capture"`
	ConsecutiveFailures   int       `json:"consecutive_failures"`
	LastError             string    `json:"last_error,omitempty"`
}

// Monitor tracks capture health and fires callbacks on up/down transitions.
// The camera counts as down after maxFailures consecutive capture errors.
type Monitor struct {
	mu          sync.RWMutex
	cameraID    string
	maxFailures int
	status      Status

	onCameraDown func(cameraID string)
	onCameraUp   func(cameraID string)
}

func NewMonitor(cameraID string, maxFailures int) *Monitor {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Monitor{
		cameraID:    cameraID,
		maxFailures: maxFailures,
		status:      Status{CameraID: cameraID},
	}
}

func (m *Monitor) SetCallbacks(onCameraDown, onCameraUp func(cameraID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCameraDown = onCameraDown
	m.onCameraUp = onCameraUp
}

func (m *Monitor) RecordSuccess() {
	m.mu.Lock()

	wasInactive := !m.status.IsActive
	m.status.IsActive = true
	m.status.LastSuccessfulCapture = time.Now()
	m.status.ConsecutiveFailures = 0
	m.status.LastError = ""
	callback := m.onCameraUp

	m.mu.Unlock()

	metrics.CameraConnected.Set(1)

	if wasInactive {
		logger.Log.Infow("Camera is up", "camera_id", m.cameraID)
		if callback != nil {
			callback(m.cameraID)
		}
	}
}

func (m *Monitor) RecordFailure(err error) {
	m.mu.Lock()

	m.status.ConsecutiveFailures++
	if err != nil {
		m.status.LastError = err.Error()
	}

	wentDown := m.status.IsActive && m.status.ConsecutiveFailures >= m.maxFailures
	if wentDown {
		m.status.IsActive = false
	}
	callback := m.onCameraDown
	failures := m.status.ConsecutiveFailures

	m.mu.Unlock()

	if wentDown {
		metrics.CameraConnected.Set(0)
		logger.Log.Errorw("Camera is down",
			"camera_id", m.cameraID,
			"consecutive_failures", failures,
			"error", err)
		if callback != nil {
			callback(m.cameraID)
		}
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
