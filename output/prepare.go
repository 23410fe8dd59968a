package output

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jsonleex/wr-exporter/models"
	"github.com/spf13/afero"
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(question string, def bool) bool

// Prepare resolves dir to an absolute path and makes sure it exists and is
// empty. A non-empty directory is wiped only if confirm agrees.
func Prepare(fs afero.Fs, dir string, confirm ConfirmFunc) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", models.NewExportError(models.ErrCodeInvalidInput, "invalid output path "+dir, err)
	}

	exists, err := afero.DirExists(fs, abs)
	if err != nil {
		return "", models.NewExportError(models.ErrCodeInternal, "failed to inspect "+abs, err)
	}
	if !exists {
		if err := fs.MkdirAll(abs, 0o755); err != nil {
			return "", models.NewExportError(models.ErrCodeInternal, "failed to create "+abs, err)
		}
		return abs, nil
	}

	empty, err := afero.IsEmpty(fs, abs)
	if err != nil {
		return "", models.NewExportError(models.ErrCodeInternal, "failed to list "+abs, err)
	}
	if empty {
		return abs, nil
	}

	if !confirm("Output is not empty. Overwrite it?", true) {
		return "", models.NewExportError(models.ErrCodeOutputNotEmpty, "output directory is not empty: "+abs, nil)
	}
	if err := fs.RemoveAll(abs); err != nil {
		return "", models.NewExportError(models.ErrCodeInternal, "failed to clear "+abs, err)
	}
	if err := fs.MkdirAll(abs, 0o755); err != nil {
		return "", models.NewExportError(models.ErrCodeInternal, "failed to create "+abs, err)
	}
	return abs, nil
}

// AssumeYes answers every question with yes.
func AssumeYes(string, bool) bool { return true }

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask repeats the question until it gets y/yes/n/no or an empty answer,
// which selects def. End of input without an answer is "no", so a closed
// stdin never confirms a destructive action.
func (p *Prompter) Ask(question string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s] ", question, hint)
		line, err := p.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))

		switch answer {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if err != nil {
			fmt.Fprintln(p.out)
			return false
		}
		if answer == "" {
			return def
		}
		fmt.Fprintln(p.out, "Invalid input. Please try again.")
	}
}
