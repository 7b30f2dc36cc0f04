package prometheus

import (
	"context"
	"time"

	"github.com/coderi421/sqlobject"
	"github.com/prometheus/client_golang/prometheus"
)

type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	// Registerer 默认是 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() sqlobject.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,  // 99 线
			0.999: 0.0001, // 999 线
		},
	}, []string{"type", "method", "kind", "status"})

	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector)

	return func(next sqlobject.Invoker) sqlobject.Invoker {
		return func(ctx context.Context, inv *sqlobject.Invocation) *sqlobject.Result {
			startTime := time.Now()
			res := next(ctx, inv)
			status := "ok"
			if res.Err != nil {
				status = "error"
			}
			vector.WithLabelValues(inv.Type.String(), inv.Method, inv.Kind.String(), status).
				Observe(float64(time.Since(startTime).Microseconds()))
			return res
		}
	}
}
