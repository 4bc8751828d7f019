package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mlflow-registry-workflow/internal/core/domain"
	"mlflow-registry-workflow/internal/core/services"
)

// ErrInputClosed is returned when input ends while a prompt is waiting.
var ErrInputClosed = errors.New("input closed before a choice was made")

// Prompter asks questions on a line-based terminal. Invalid choices are
// reported and asked again; they never leave the prompter.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Answers starting with y are yes.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" (y/n): ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return strings.HasPrefix(answer, "y"), nil
}

// ChooseDirectory lists candidate model directories and asks for one.
func (p *Prompter) ChooseDirectory(ctx context.Context, candidates []domain.Artifact) (int, error) {
	fmt.Fprintln(p.out, "\nAvailable model directories:")
	for i, c := range candidates {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, c.Path)
	}

	for {
		answer, err := p.Ask(ctx, "\nSelect the model directory (enter number): ")
		if err != nil {
			return 0, err
		}
		idx, err := services.SelectIndex(len(candidates), answer)
		if err != nil {
			fmt.Fprintln(p.out, invalidMessage(err))
			continue
		}
		return idx, nil
	}
}

// ChooseVersion drives a selection awaiting a choice until it resolves.
func (p *Prompter) ChooseVersion(ctx context.Context, selection *services.VersionSelection) error {
	fmt.Fprintln(p.out, "\nAvailable versions:")
	for i, v := range selection.Candidates() {
		fmt.Fprintf(p.out, "%d. Version %s (Stage: %s)\n", i+1, v.Version, stageOrNone(v.Stage))
	}

	for selection.State() == services.StateAwaitingChoice {
		answer, err := p.Ask(ctx, "\nSelect version number to serve: ")
		if err != nil {
			return err
		}
		if err := selection.Submit(answer); err != nil {
			fmt.Fprintln(p.out, invalidMessage(err))
		}
	}
	return nil
}

func stageOrNone(stage string) string {
	if stage == "" {
		return "None"
	}
	return stage
}

func invalidMessage(err error) string {
	return "Invalid choice, " + strings.TrimPrefix(err.Error(), domain.ErrInvalidSelection.Error()+": ") + "."
}

// Ensure interface compliance
var (
	_ services.DirectoryChooser = (*Prompter)(nil)
	_ services.VersionChooser   = (*Prompter)(nil)
)
