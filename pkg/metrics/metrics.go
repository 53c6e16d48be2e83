package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 后端 REST 调用延迟（秒）
	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "TaskMaster backend call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"operation", "outcome"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	// 看板操作计数
	BoardOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_operation_count",
			Help: "Total number of board operations",
		},
		[]string{"operation", "result"}, // result: applied, noop, persisted, rolled_back, rejected
	)

	// 项目进度级联失败
	CascadeFailureCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "board_cascade_failure_count",
			Help: "Project progress updates that failed after a task move",
		},
	)

	// 看板统计生成
	DashboardBuildCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_build_count",
			Help: "Total number of dashboard snapshots built",
		},
		[]string{"view", "degraded"},
	)

	// 公开看板缓存命中
	ShareCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_cache_count",
			Help: "Public dashboard cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordBackendCall 记录后端调用延迟
func RecordBackendCall(operation, outcome string, duration time.Duration) {
	BackendCallDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementBoardOperation 增加看板操作计数
func IncrementBoardOperation(operation, result string) {
	BoardOperationCount.WithLabelValues(operation, result).Inc()
}

func IncrementCascadeFailure() {
	CascadeFailureCount.Inc()
}

func IncrementDashboardBuild(view string, degraded bool) {
	d := "false"
	if degraded {
		d = "true"
	}
	DashboardBuildCount.WithLabelValues(view, d).Inc()
}

func IncrementShareCache(result string) {
	ShareCacheCount.WithLabelValues(result).Inc()
}
