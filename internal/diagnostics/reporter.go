package diagnostics

import (
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Reporter aggregates CodeErrors from one reader phase run (spec §7: "reader
// does not abort the package; erroring entity is replaced by a placeholder
// so unrelated code continues to load") and renders them either for a
// human terminal or as structured log lines for CI/service consumption.
//
// Internal errors are always routed through the zerolog sink regardless of
// terminal mode, since they are implementation bugs that belong in
// operational logs, not just a human's scrollback.
type Reporter struct {
	log    zerolog.Logger
	color  bool
	errors []*CodeError
}

// NewReporter builds a Reporter writing to w. Color is auto-detected via
// isatty, matching the teacher's terminal-buffering convention
// (internal/evaluator/builtins_term.go) of never assuming a TTY.
func NewReporter(w io.Writer) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{
		log:   zerolog.New(w).With().Timestamp().Logger(),
		color: color,
	}
}

// Report records one error. Internal errors are also logged immediately with
// full structured context; every error is buffered in report order, unsorted,
// for Errors.
func (r *Reporter) Report(err *CodeError) {
	if err.IsInternal() {
		r.log.Error().
			Str("kind", err.Kind.String()).
			Str("pos", err.Pos.String()).
			Msg(err.Msg)
	}
	r.errors = append(r.errors, err)
}

// Errors returns every error recorded so far, in report order.
func (r *Reporter) Errors() []*CodeError {
	return r.errors
}

// HasErrors reports whether any error (internal or user-source) was seen.
func (r *Reporter) HasErrors() bool {
	return len(r.errors) > 0
}

// Summary emits a one-line human summary (used by the CLI and the compile
// service) including a humanized wall-clock duration for the phase run.
func (r *Reporter) Summary(elapsed time.Duration) string {
	n := len(r.errors)
	word := "errors"
	if n == 1 {
		word = "error"
	}
	return humanize.Comma(int64(n)) + " " + word + " in " + humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", "")
}
