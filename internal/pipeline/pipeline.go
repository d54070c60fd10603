// Package pipeline runs one scan-and-remediate invocation: acquire the
// repository, run the SAST tool, and pair each finding with a suggestion.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/sastforge/internal/finding"
	"github.com/ppiankov/sastforge/internal/report"
	"github.com/ppiankov/sastforge/internal/tool"
	"github.com/ppiankov/sastforge/internal/workspace"
)

const tracerName = "github.com/ppiankov/sastforge/internal/pipeline"

// Options configures a pipeline invocation.
type Options struct {
	Tool      finding.ToolKind
	Workspace workspace.Options
	Runner    *tool.Runner     // nil uses a zero Runner
	Suggester report.Suggester // nil marks every finding unavailable

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	// RunID defaults to a fresh UUID.
	RunID string
	// OnEntry is forwarded to the report assembler.
	OnEntry func(index, total int, e report.Entry)
}

// Run executes the pipeline against repoURL. Acquisition and scan failures
// are returned and no report is produced. The workspace is removed before
// Run returns.
func Run(ctx context.Context, repoURL string, opts Options) (*report.Report, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)
	log := slog.With("run_id", runID)

	ctx, span := tracer.Start(ctx, "pipeline", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("repo.url", repoURL),
		attribute.String("tool", string(opts.Tool)),
	))
	defer span.End()

	// reject unknown tools before cloning anything
	if _, err := tool.Lookup(opts.Tool); err != nil {
		return nil, fail(span, err)
	}

	ws, err := acquire(ctx, tracer, repoURL, opts.Workspace)
	if err != nil {
		return nil, fail(span, err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn("workspace cleanup failed", "path", ws.Root, "error", err)
		}
	}()

	scan, err := runScan(ctx, tracer, opts, ws)
	if err != nil {
		return nil, fail(span, err)
	}
	log.Info("findings parsed", "tool", scan.Tool, "findings", len(scan.Findings))

	asm := &report.Assembler{
		Suggester: opts.Suggester,
		OnEntry:   opts.OnEntry,
		Observe:   observe(tracer),
	}
	rep := asm.Assemble(ctx, scan)
	rep.RunID = runID
	rep.Repo = repoURL

	suggested, unavailable := rep.Counts()
	span.SetAttributes(
		attribute.Int("findings", len(rep.Entries)),
		attribute.Int("suggested", suggested),
		attribute.Int("unavailable", unavailable),
	)
	span.SetStatus(codes.Ok, "")
	return rep, nil
}

func acquire(ctx context.Context, tracer trace.Tracer, repoURL string, opts workspace.Options) (*workspace.Workspace, error) {
	ctx, span := tracer.Start(ctx, "acquire")
	defer span.End()

	ws, err := workspace.Acquire(ctx, repoURL, opts)
	if err != nil {
		return nil, fail(span, err)
	}
	return ws, nil
}

func runScan(ctx context.Context, tracer trace.Tracer, opts Options, ws *workspace.Workspace) (*finding.ScanResult, error) {
	ctx, span := tracer.Start(ctx, "scan", trace.WithAttributes(attribute.String("tool", string(opts.Tool))))
	defer span.End()

	runner := opts.Runner
	if runner == nil {
		runner = &tool.Runner{}
	}
	res, err := runner.Run(ctx, opts.Tool, ws)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("findings", len(res.Findings)))
	return res, nil
}

// observe wraps each suggestion call in a remediate span.
func observe(tracer trace.Tracer) func(context.Context, finding.Finding, func(context.Context) report.Outcome) report.Outcome {
	return func(ctx context.Context, f finding.Finding, call func(context.Context) report.Outcome) report.Outcome {
		ctx, span := tracer.Start(ctx, "remediate", trace.WithAttributes(
			attribute.String("file", f.FilePath),
			attribute.Int("line", f.Line),
			attribute.String("severity", f.Severity.String()),
		))
		defer span.End()

		out := call(ctx)
		span.SetAttributes(attribute.String("outcome", out.Kind.String()))
		if out.Kind == report.Unavailable {
			span.SetStatus(codes.Error, out.Reason)
		}
		return out
	}
}

// fail marks span as failed and passes err through.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
