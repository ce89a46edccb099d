package clock

import (
	"sync"
	"time"
)

// Clock 时间来源，便于测试时替换
type Clock interface {
	Now() time.Time
}

// RealClock 系统时间
type RealClock struct{}

// NewRealClock 创建系统时钟
func NewRealClock() Clock {
	return RealClock{}
}

// Now 返回当前系统时间
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock 可手动调整的时钟
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock 以指定时间创建 MockClock
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

// Now 返回当前模拟时间
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set 设置模拟时间
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance 推进模拟时间
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}
