package process

// server.go runs `mlflow models serve` as a child process.

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/config"
	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

// Server launches a local serving process and blocks until it exits.
type Server struct {
	program string
	env     []string
	stdout  io.Writer
	stderr  io.Writer
}

// NewServer creates a Server running cfg.Program. Output of the child goes
// to the current process's stdout and stderr.
func NewServer(cfg *config.ServeConfig, trackingURI string) *Server {
	program := cfg.Program
	if program == "" {
		program = "mlflow"
	}
	return &Server{
		program: program,
		env:     []string{"MLFLOW_TRACKING_URI=" + trackingURI},
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithOutput redirects the child's output.
func (s *Server) WithOutput(stdout, stderr io.Writer) *Server {
	s.stdout = stdout
	s.stderr = stderr
	return s
}

// BuildServeArgs builds the serve command arguments for a spec.
func BuildServeArgs(spec domain.ServeSpec) []string {
	args := []string{"models", "serve", "--model-uri", spec.ModelURI}

	if spec.Port > 0 {
		args = append(args, "--port", strconv.Itoa(spec.Port))
	}
	if spec.Host != "" {
		args = append(args, "--host", spec.Host)
	}
	if spec.EnvManager != "" {
		args = append(args, "--env-manager", spec.EnvManager)
	}

	return args
}

// CommandLine renders the full command with shell escaping, for logs.
func (s *Server) CommandLine(spec domain.ServeSpec) string {
	args := BuildServeArgs(spec)
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellescape.Quote(s.program))
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Serve runs the server in the foreground. A non-zero exit or a failure to
// start is reported as *domain.ServeFailure.
func (s *Server) Serve(ctx context.Context, spec domain.ServeSpec) error {
	logger := log.WithFields(log.Fields{
		"model_uri": spec.ModelURI,
		"port":      spec.Port,
	})
	logger.WithField("command", s.CommandLine(spec)).Info("starting model server")

	cmd := exec.CommandContext(ctx, s.program, BuildServeArgs(spec)...)
	cmd.Env = append(os.Environ(), s.env...)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.WithField("exit_code", exitErr.ExitCode()).Error("model server exited")
			return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: exitErr.ExitCode(), Err: err}
		}
		logger.WithError(err).Error("model server could not start")
		return &domain.ServeFailure{ModelURI: spec.ModelURI, ExitCode: -1, Err: err}
	}

	logger.Info("model server stopped")
	return nil
}

// Ensure interface compliance
var _ ports.ModelServer = (*Server)(nil)
