package attach

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/forms"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/oracle"
	"github.com/jonathan/apply-agent/internal/rendering"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// CoverLetterPrompt is the free-text question used to obtain cover letter content.
const CoverLetterPrompt = "Write a cover letter"

// Options configures where documents come from and where generated ones go.
type Options struct {
	MasterResumePath string
	OutputDir        string
	CandidateName    string
}

// Handler routes file upload controls to the right document.
type Handler struct {
	oracle    oracle.Oracle
	generator Generator
	compiler  rendering.Compiler
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(o oracle.Oracle, g Generator, c rendering.Compiler, opts Options, logger *zap.Logger) *Handler {
	if opts.OutputDir == "" {
		opts.OutputDir = "generated_cv"
	}
	return &Handler{oracle: o, generator: g, compiler: c, opts: opts, now: time.Now, logger: logging.OrNop(logger)}
}

// Attach classifies upload by its label and attaches a resume or cover letter.
// Unclassifiable controls are skipped. Classification, generation and
// rendering failures are returned; a failed browser upload is only logged.
func (h *Handler) Attach(ctx context.Context, upload forms.FileUpload, job *types.ApplicationJob) error {
	if err := upload.Input.Reveal(ctx); err != nil {
		h.logger.Warn("could not reveal file input", zap.Error(err))
	}

	kind, err := h.oracle.ClassifyUpload(ctx, strings.ToLower(upload.Label))
	observe(oracle.OpClassifyUpload, err)
	if err != nil {
		return &AttachError{Kind: "document", Label: upload.Label, Cause: err}
	}

	var path, source string
	switch kind {
	case types.UploadResume:
		path, source, err = h.resume(ctx, job)
	case types.UploadCover:
		path, source, err = h.coverLetter(ctx, job)
	default:
		h.logger.Info("upload control not recognized, skipping", zap.String("label", upload.Label))
		metrics.Attachments.WithLabelValues(string(types.UploadUnknown), "skipped").Inc()
		return nil
	}
	if err != nil {
		return &AttachError{Kind: string(kind), Label: upload.Label, Cause: err}
	}

	if err := upload.Input.Upload(ctx, path); err != nil {
		h.logger.Warn("file upload failed, skipping", zap.String("path", path), zap.Error(err))
		return nil
	}
	metrics.Attachments.WithLabelValues(string(kind), source).Inc()
	h.logger.Info("document attached", zap.String("kind", string(kind)), zap.String("source", source), zap.String("path", path))
	return nil
}

func (h *Handler) resume(ctx context.Context, job *types.ApplicationJob) (string, string, error) {
	if job.ResumePath != "" {
		if _, err := os.Stat(job.ResumePath); err == nil {
			abs, err := filepath.Abs(job.ResumePath)
			if err != nil {
				return "", "", err
			}
			return abs, "existing", nil
		}
		h.logger.Warn("resume path does not exist, generating a new resume", zap.String("path", job.ResumePath))
	}

	master, err := os.ReadFile(h.opts.MasterResumePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read master resume: %w", err)
	}
	doc, err := h.generator.Generate(ctx, string(master), job.Description)
	if err != nil {
		return "", "", err
	}

	path, err := h.outputPath("resume")
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write generated resume: %w", err)
	}
	job.ResumePath = path
	return path, "generated", nil
}

func (h *Handler) coverLetter(ctx context.Context, job *types.ApplicationJob) (string, string, error) {
	body, err := h.oracle.AnswerFreeText(ctx, CoverLetterPrompt)
	observe(oracle.OpAnswerFreeText, err)
	if err != nil {
		return "", "", err
	}
	tex, err := rendering.RenderCoverLetter(body, job, h.opts.CandidateName, h.now())
	if err != nil {
		return "", "", err
	}

	path, err := h.outputPath("cover_letter")
	if err != nil {
		return "", "", err
	}
	if err := h.compiler.Compile(ctx, tex, path); err != nil {
		return "", "", err
	}
	job.CoverLetterPath = path
	return path, "generated", nil
}

// outputPath returns an absolute <outdir>/<prefix>_<unix>.pdf path, creating the directory.
func (h *Handler) outputPath(prefix string) (string, error) {
	if err := os.MkdirAll(h.opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s_%d.pdf", prefix, h.now().Unix())
	return filepath.Abs(filepath.Join(h.opts.OutputDir, name))
}

func observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OracleCalls.WithLabelValues(op, status).Inc()
}

var _ forms.Uploader = (*Handler)(nil)
