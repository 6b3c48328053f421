package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// SystemMetrics периодически снимает показатели рантайма процесса
type SystemMetrics struct {
	log         *logger.Logger
	goroutines  prometheus.Gauge
	memoryAlloc prometheus.Gauge
	memorySys   prometheus.Gauge
	gcCycles    prometheus.Gauge
	stopCh      chan struct{}
}

// NewSystemMetrics создает новые системные метрики
func NewSystemMetrics(registry *prometheus.Registry, log *logger.Logger) *SystemMetrics {
	return &SystemMetrics{
		log: log,
		goroutines: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "system_goroutines",
			Help: "Current number of goroutines",
		}),
		memoryAlloc: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_alloc_bytes",
			Help: "Currently allocated memory in bytes",
		}),
		memorySys: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_system_bytes",
			Help: "Total memory obtained from system in bytes",
		}),
		gcCycles: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "system_gc_cycles",
			Help: "Completed garbage collection cycles",
		}),
		stopCh: make(chan struct{}),
	}
}

// record снимает текущие показатели рантайма
func (m *SystemMetrics) record() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.goroutines.Set(float64(runtime.NumGoroutine()))
	m.memoryAlloc.Set(float64(memStats.Alloc))
	m.memorySys.Set(float64(memStats.Sys))
	m.gcCycles.Set(float64(memStats.NumGC))
}

// StartRecording начинает запись метрик с заданным интервалом
func (m *SystemMetrics) StartRecording(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.record()
		for {
			select {
			case <-ticker.C:
				m.record()
			case <-m.stopCh:
				return
			}
		}
	}()

	m.log.Debugw("System metrics recording started", "interval", interval)
}

// Stop останавливает запись метрик
func (m *SystemMetrics) Stop() {
	close(m.stopCh)
}
