package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chatrelay/internal/pkg/errs"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatrelay_build_info",
			Help: "Build information for the chat relay",
		},
		[]string{"date", "sha", "version"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_requests_total",
			Help: "Total number of relayed chat requests by outcome",
		},
		[]string{"outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatrelay_upstream_request_duration_seconds",
			Help:    "Duration of calls to the generation service",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)
)

// OutcomeSuccess 成功请求的 outcome 标签
const OutcomeSuccess = "success"

// Register 注册所有指标
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, requestsTotal, upstreamDuration)
}

// SetBuildInfo 设置构建信息
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// Outcome 将结果转换为标签值，nil 为 success，其余为错误分类名
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return errs.KindOf(err).String()
}

// RecordRequest 记录一次转发请求的结果
func RecordRequest(err error) {
	requestsTotal.WithLabelValues(Outcome(err)).Inc()
}

// ObserveUpstream 记录一次生成服务调用
func ObserveUpstream(err error, d time.Duration) {
	upstreamDuration.WithLabelValues(Outcome(err)).Observe(d.Seconds())
}
