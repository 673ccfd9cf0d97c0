package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-tictactoe-backend/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: insecure, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	preserveOTelGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("got (shutdown!=nil: %v, %v)", shutdown != nil, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("disabled setup replaced the global provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)
		shutdown, err := SetupOTel(context.Background(), enabled("tictactoe-test", insecure), "v1.0.0")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("insecure=%v: expected *sdktrace.TracerProvider", insecure)
		}

		carrier := propagation.MapCarrier{}
		ctx, span := otel.Tracer("services/TurnEngine").Start(context.Background(), "Play")
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("insecure=%v: traceparent not injected", insecure)
		}
		_ = shutdown(context.Background())
	}
}

func TestSetupOTel_SeamErrorsPropagate(t *testing.T) {
	preserveOTelGlobals(t)
	prevExp, prevRes := newOTLPExporterFn, newServiceResourceFn
	t.Cleanup(func() { newOTLPExporterFn, newServiceResourceFn = prevExp, prevRes })

	boom := errors.New("boom")
	before := otel.GetTracerProvider()

	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) { return nil, boom }
	if _, err := SetupOTel(context.Background(), enabled("x", true), "v"); !errors.Is(err, boom) {
		t.Fatalf("exporter error not propagated: %v", err)
	}

	newOTLPExporterFn = prevExp
	newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) { return nil, boom }
	if _, err := SetupOTel(context.Background(), enabled("x", true), "v"); !errors.Is(err, boom) {
		t.Fatalf("resource error not propagated: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("failed setup must leave globals untouched")
	}
}

func TestGameCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(MovesRejected.WithLabelValues("occupied"))
	MovesRejected.WithLabelValues("occupied").Inc()
	if got := testutil.ToFloat64(MovesRejected.WithLabelValues("occupied")); got != before+1 {
		t.Fatalf("moves rejected = %v, want %v", got, before+1)
	}
	if n := testutil.CollectAndCount(GamesFinished); n < 0 {
		t.Fatalf("collect: %d", n)
	}
}
