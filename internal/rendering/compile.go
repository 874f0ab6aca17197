package rendering

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CompilationTimeout is the maximum time to wait for LaTeX compilation
const CompilationTimeout = 30 * time.Second

// Compiler turns LaTeX source into a PDF at pdfPath.
type Compiler interface {
	Compile(ctx context.Context, tex string, pdfPath string) error
}

// PDFLaTeX compiles with the pdflatex binary.
type PDFLaTeX struct {
	// Binary defaults to "pdflatex" looked up in PATH.
	Binary  string
	Timeout time.Duration
}

// Compile writes tex to a scratch directory, runs pdflatex there and moves the PDF to pdfPath.
func (c PDFLaTeX) Compile(ctx context.Context, tex string, pdfPath string) error {
	binary := c.Binary
	if binary == "" {
		binary = "pdflatex"
	}
	binPath, err := exec.LookPath(binary)
	if err != nil {
		return &CompilationError{
			Message: fmt.Sprintf("%s not found. Please install a LaTeX distribution (e.g., TeX Live)", binary),
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "latex-compile-*")
	if err != nil {
		return &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer os.RemoveAll(workDir)

	texPath := filepath.Join(workDir, "document.tex")
	if err := os.WriteFile(texPath, []byte(tex), 0644); err != nil {
		return &CompilationError{Message: "failed to write LaTeX source", Cause: err}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = CompilationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binPath, "-interaction=nonstopmode", "-output-directory", workDir, texPath)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	runErr := cmd.Run()

	builtPDF := filepath.Join(workDir, "document.pdf")
	if _, err := os.Stat(builtPDF); err != nil {
		return &CompilationError{
			Message:   "LaTeX compilation failed: PDF was not generated",
			LogOutput: output.String(),
			Cause:     runErr,
		}
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), 0755); err != nil {
		return &CompilationError{Message: "failed to create output directory", Cause: err}
	}
	if err := moveFile(builtPDF, pdfPath); err != nil {
		return &CompilationError{Message: fmt.Sprintf("failed to write %s", pdfPath), Cause: err}
	}
	return nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
