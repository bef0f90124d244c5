package crawlers

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// ioBoundFactor 每个逻辑核心分配的worker数(抓取以等待网络为主)
	ioBoundFactor = 4

	// workerMemoryUsage 单个worker的内存预算(响应体缓冲 + 解析)
	workerMemoryUsage = 32 * 1024 * 1024

	// safetyReserveMemory 计算worker上限时保留给系统的内存
	safetyReserveMemory = 512 * 1024 * 1024
)

// ResourceMonitorConfig 资源检测配置
type ResourceMonitorConfig struct {
	MaxWorkers        int    // 绝对最大worker数
	WorkerMemoryUsage uint64 // 单个worker内存预算(字节), 0使用默认值
	SafetyReserve     uint64 // 保留内存(字节), 0使用默认值
}

// ResourceMonitor 根据CPU核心数与可用内存估算验证器工作池大小
type ResourceMonitor struct {
	config ResourceMonitorConfig
	logger zerolog.Logger

	// 以下函数可在测试中替换
	logicalCores    func() (int, error)
	availableMemory func() (uint64, error)
}

// NewResourceMonitor 创建资源检测器
func NewResourceMonitor(config ResourceMonitorConfig, logger zerolog.Logger) *ResourceMonitor {
	if config.WorkerMemoryUsage == 0 {
		config.WorkerMemoryUsage = workerMemoryUsage
	}
	if config.SafetyReserve == 0 {
		config.SafetyReserve = safetyReserveMemory
	}
	return &ResourceMonitor{
		config: config,
		logger: logger,
		logicalCores: func() (int, error) {
			return cpu.Counts(true)
		},
		availableMemory: func() (uint64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.Available, nil
		},
	}
}

// CalculateMaxWorkers 计算默认工作池大小
// min(逻辑核心数 * ioBoundFactor, 可用内存允许的数量, MaxWorkers), 至少为1
func (rm *ResourceMonitor) CalculateMaxWorkers() int {
	cores, err := rm.logicalCores()
	if err != nil || cores < 1 {
		rm.logger.Debug().Err(err).Msg("获取逻辑核心数失败,使用runtime.NumCPU")
		cores = runtime.NumCPU()
	}
	result := cores * ioBoundFactor

	if available, err := rm.availableMemory(); err != nil {
		rm.logger.Debug().Err(err).Msg("获取可用内存失败,跳过内存限制")
	} else {
		byMemory := 1
		if available > rm.config.SafetyReserve {
			byMemory = int((available - rm.config.SafetyReserve) / rm.config.WorkerMemoryUsage)
		}
		if byMemory < result {
			rm.logger.Warn().
				Uint64("available_mb", available/(1024*1024)).
				Int("workers", byMemory).
				Msg("可用内存不足,限制工作池大小")
			result = byMemory
		}
	}

	if rm.config.MaxWorkers > 0 && rm.config.MaxWorkers < result {
		result = rm.config.MaxWorkers
	}
	if result < 1 {
		result = 1
	}

	rm.logger.Debug().Int("cores", cores).Int("workers", result).Msg("工作池大小计算完成")
	return result
}
