package main

import (
	"context"

	appioc "github.com/fahaniecares/notification-delivery/cmd/delivery/ioc"
	"github.com/fahaniecares/notification-delivery/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server/egovernor"
	"go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	egoApp := ego.New()

	tp := ioc.InitZipkinTracer()
	defer func(tp *trace.TracerProvider) {
		if err := tp.Shutdown(context.Background()); err != nil {
			elog.Error("shutdown tracer", elog.FieldErr(err))
		}
	}(tp)

	app, err := appioc.InitApp()
	if err != nil {
		elog.Panic("assemble delivery app", elog.FieldErr(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.StartTasks(ctx)

	// The governor exposes health, metrics and pprof; delivery work itself
	// rides the kafka consumer and the retry drain loop.
	if err := egoApp.Serve(
		egovernor.Load("server.governor").Build(),
	).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
