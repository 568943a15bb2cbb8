package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDetectEnv(t *testing.T) {
	cases := map[string]Env{
		"":            EnvDev,
		"dev":         EnvDev,
		"whatever":    EnvDev,
		"stage":       EnvStage,
		"staging":     EnvStage,
		"prod":        EnvProd,
		" PRODUCTION": EnvProd,
	}
	for raw, want := range cases {
		t.Setenv("APP_ENV", raw)
		if got := DetectEnv(); got != want {
			t.Errorf("APP_ENV=%q: got %q, want %q", raw, got, want)
		}
	}
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := initTo(&buf, Config{
		Service: "demo",
		Version: "v0.0.1",
		Env:     EnvDev,
		Backend: BackendStd,
		Level:   slog.LevelDebug,
	})
	l.Info("Hello world")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output in dev, got JSON: %s", out)
	}
	for _, want := range []string{"Hello world", "service=demo", "env=dev", "version=v0.0.1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing from %s", want, out)
		}
	}
}

func TestInit_ProdStd_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := initTo(&buf, Config{Service: "demo", Env: EnvProd, Backend: BackendStd})
	l.Info("booted")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "booted" || m["service"] != "demo" {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := initTo(&buf, Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              EnvProd,
		Backend:          BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
	})
	l.Info("booted", slog.String("k", "v"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", buf.String(), err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "demo" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: service=%v env=%v version=%v", m["service"], m["env"], m["version"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level mismatch: %v", m["level"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}

func TestZap_PropagatesTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	l := initTo(&buf, Config{
		Service:          "demo",
		Env:              EnvProd,
		Backend:          BackendZap,
		SampleInitial:    100000,
		SampleThereafter: 100000,
	})
	l.InfoContext(ctx, "with trace")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected JSON, got: %s, err=%v", buf.String(), err)
	}
	if m["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id mismatch: %v", m)
	}
	if m["span_id"] == nil {
		t.Fatalf("span_id missing: %v", m)
	}
}

func TestAttrsFromCtx_NoSpan(t *testing.T) {
	if attrs := AttrsFromCtx(context.Background()); attrs != nil {
		t.Fatalf("expected no attrs, got %v", attrs)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := initTo(&buf, Config{Env: EnvDev, Backend: BackendStd})

	if got := FromContext(context.Background()); got != base {
		t.Fatal("expected process logger without a scoped one")
	}

	scoped := base.With("req_id", "abc")
	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("scoped")

	if !strings.Contains(buf.String(), "req_id=abc") {
		t.Fatalf("scoped attrs missing: %s", buf.String())
	}
}

func TestCommonAttrs(t *testing.T) {
	if got := ensureInstanceID("  pod-7 "); got != "pod-7" {
		t.Fatalf("configured instance id = %q", got)
	}
	gen := ensureInstanceID("")
	if i := strings.LastIndexByte(gen, '-'); i < 0 || len(gen)-i-1 != 8 {
		t.Fatalf("generated instance id = %q", gen)
	}

	keys := func(attrs []slog.Attr) string {
		var names []string
		for _, a := range attrs {
			names = append(names, a.Key)
		}
		return strings.Join(names, ",")
	}
	if got := keys(commonAttrs(Config{Service: "s", Env: EnvProd, InstanceID: "i"})); got != "service,env,instance_id,started_at" {
		t.Fatalf("attrs without version = %s", got)
	}
	if got := keys(commonAttrs(Config{Service: "s", Version: "1", InstanceID: "i"})); got != "service,env,version,instance_id,started_at" {
		t.Fatalf("attrs with version = %s", got)
	}
}
