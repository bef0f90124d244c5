package crawlers

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestMonitor(config ResourceMonitorConfig, cores int, available uint64, memErr error) *ResourceMonitor {
	rm := NewResourceMonitor(config, zerolog.Nop())
	rm.logicalCores = func() (int, error) { return cores, nil }
	rm.availableMemory = func() (uint64, error) { return available, memErr }
	return rm
}

// TestResourceMonitor_CalculateMaxWorkers 测试工作池大小计算
func TestResourceMonitor_CalculateMaxWorkers(t *testing.T) {
	const gb = 1024 * 1024 * 1024

	tests := []struct {
		name      string
		config    ResourceMonitorConfig
		cores     int
		available uint64
		memErr    error
		expected  int
	}{
		{"核心数的4倍", ResourceMonitorConfig{}, 4, 16 * gb, nil, 16},
		{"受max_workers限制", ResourceMonitorConfig{MaxWorkers: 8}, 4, 16 * gb, nil, 8},
		{"受内存限制", ResourceMonitorConfig{}, 16, safetyReserveMemory + 3*workerMemoryUsage, nil, 3},
		{"内存低于保留值时至少为1", ResourceMonitorConfig{}, 8, 100 * 1024 * 1024, nil, 1},
		{"获取内存失败时忽略内存限制", ResourceMonitorConfig{}, 2, 0, errors.New("unsupported"), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newTestMonitor(tt.config, tt.cores, tt.available, tt.memErr)
			if result := rm.CalculateMaxWorkers(); result != tt.expected {
				t.Errorf("CalculateMaxWorkers() = %d, 期望 %d", result, tt.expected)
			}
		})
	}
}

func TestResourceMonitor_RealSystem(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{MaxWorkers: 64}, zerolog.Nop())
	if n := rm.CalculateMaxWorkers(); n < 1 || n > 64 {
		t.Errorf("CalculateMaxWorkers() = %d, 应在 [1, 64] 范围内", n)
	}
}
