package hook

import (
	"fmt"
	"strings"

	"github.com/hay-kot/morph/internal/styles"
)

func (r *Reconciler) printHeader(action Action, count int) {
	if r.stdout == nil {
		return
	}

	divider := styles.DividerStyle.Render(strings.Repeat("─", 50))
	header := styles.CommandHeaderStyle.Render(string(action))
	countLabel := styles.DividerStyle.Render(fmt.Sprintf("[%d hooks]", count))

	_, _ = fmt.Fprintln(r.stdout)
	_, _ = fmt.Fprintln(r.stdout, divider)
	_, _ = fmt.Fprintf(r.stdout, "%s %s\n", header, countLabel)
	_, _ = fmt.Fprintln(r.stdout, divider)
}

func (r *Reconciler) printStep(s Step) {
	if r.stdout == nil {
		return
	}

	switch s.Outcome {
	case OutcomeFailed:
		_, _ = fmt.Fprintf(r.stdout, "  %s %s\n", styles.CommandStyle.Render(s.Key), s.Error)
	case OutcomeSkipped:
		_, _ = fmt.Fprintf(r.stdout, "  %s %s\n", s.Key, styles.DividerStyle.Render("(up to date)"))
	default:
		_, _ = fmt.Fprintf(r.stdout, "  %s\n", s.Key)
	}
}
