package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/syssam/tablegen/compiler/gen"
)

var (
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	warning = color.New(color.FgYellow)
)

// printReport writes the generated tables to out and every rejection,
// with its rules, to errOut.
func printReport(out, errOut io.Writer, r *gen.Report) {
	for _, f := range r.Files {
		success.Fprint(out, "✓ ")
		fmt.Fprintln(out, f)
	}
	printRejections(errOut, r)
	fmt.Fprintf(out, "%d table(s) generated, %d rejected\n", len(r.Generated), len(r.Rejected))
}

func printRejections(w io.Writer, r *gen.Report) {
	for _, rj := range r.Rejected {
		failure.Fprintf(w, "✗ %s\n", rj.Table)
		var te *gen.TableError
		if !errors.As(rj.Err, &te) {
			fmt.Fprintf(w, "    %v\n", rj.Err)
			continue
		}
		for _, v := range te.Errors {
			warning.Fprintf(w, "    [%s] ", v.Rule)
			fmt.Fprintln(w, v.Message)
		}
	}
}

// rejected returns an error counting the rejected tables, if any.
func rejected(r *gen.Report) error {
	if len(r.Rejected) == 0 {
		return nil
	}
	return fmt.Errorf("%d table(s) rejected: %w", len(r.Rejected), gen.ErrValidationFailed)
}

// progressHook advances a progress bar on every per-table outcome
// logged by the generator.
type progressHook struct {
	bar *progressbar.ProgressBar
}

func newProgressHook(tables int, w io.Writer) *progressHook {
	return &progressHook{
		bar: progressbar.NewOptions(tables,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("generating"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionThrottle(50*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		),
	}
}

func (*progressHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.InfoLevel, logrus.ErrorLevel}
}

func (h *progressHook) Fire(e *logrus.Entry) error {
	switch e.Message {
	case gen.MsgTableGenerated, gen.MsgTableRejected:
		return h.bar.Add(1)
	}
	return nil
}

func (h *progressHook) finish() {
	_ = h.bar.Finish()
}
