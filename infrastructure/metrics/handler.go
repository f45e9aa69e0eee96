package metrics

import (
	"net/http/pprof"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func GetHandler(router *gin.RouterGroup, m Manager) {
	router.GET("/metrics", systemMetricsMiddleware(m), gin.WrapH(promhttp.Handler()))

	pprofGroup := router.Group("/debug/pprof")
	{
		pprofGroup.GET("/", gin.WrapF(pprof.Index))
		pprofGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
		pprofGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofGroup.GET("/trace", gin.WrapF(pprof.Trace))
		pprofGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofGroup.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	}
}

// RegisterDefaults creates the instruments the service records into.
func RegisterDefaults(m Manager) {
	m.NewGauge("app_go_routines", "Number of goroutines")
	m.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	m.NewGauge("app_go_numGC", "Number of completed GC cycles")

	m.NewCounter("http_requests_total", "Total number of HTTP requests")
	m.NewHistogram("http_request_duration_seconds", "HTTP request latency", .005, .01, .05, .1, .25, .5, 1, 2.5, 5)

	m.NewCounter("trio_rooms_expired_total", "Rooms moved to timeout by the sweep")
	m.NewCounter("trio_users_admitted_total", "Queued users seated by the sweep")
	m.NewCounter("trio_rooms_opened_total", "Overflow rooms opened by the sweep")
	m.NewCounter("trio_sweep_failures_total", "Sweeps aborted by a store error")
	m.NewHistogram("trio_sweep_duration_seconds", "Duration of one sweep", .001, .005, .01, .05, .1, .5, 1, 5)
	m.NewGauge("trio_queue_size", "Users waiting for a room")
	m.NewCounter("trio_notifications_total", "Room notifications published")
}

func systemMetricsMiddleware(m Manager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		m.SetGauge("app_go_routines", float64(runtime.NumGoroutine()))
		m.SetGauge("app_sys_memory_alloc", float64(stats.Alloc))
		m.SetGauge("app_go_numGC", float64(stats.NumGC))

		ctx.Next()
	}
}
