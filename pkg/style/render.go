package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/types"
)

// StrategyLine is one row of the strategy listing.
type StrategyLine struct {
	Name     string
	Kind     string
	Selected bool
}

// RenderStaged summarizes a successful stage.
func RenderStaged(tree *types.WorkingTree, patches int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", SuccessIndicator, TitleStyle.Render("Staged"), CodeStyle.Render(tree.ID))
	fmt.Fprintf(&b, "%s\n", Indent("source  "+PathStyle.Render(tree.SourceDir), 1))
	fmt.Fprintf(&b, "%s\n", Indent(fmt.Sprintf("patches %d applied", patches), 1))
	return b.String()
}

// RenderStrategies lists strategies in probe order, marking the selected
// one when there is one.
func RenderStrategies(lines []StrategyLine) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Extraction strategies") + "\n")
	for i, l := range lines {
		marker := " "
		if l.Selected {
			marker = SelectedMarker
		}
		fmt.Fprintf(&b, "%s %d. %s %s\n", marker, i+1, Bold(l.Name), MutedStyle.Render("("+l.Kind+")"))
	}
	return b.String()
}

// RenderError formats err with its code and details, sorted by key.
func RenderError(err error) string {
	code := errors.GetErrorCode(err)
	var b strings.Builder
	if code == errors.ErrUnknown {
		fmt.Fprintf(&b, "%s %s\n", ErrorIndicator, err.Error())
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s %s\n", ErrorIndicator, ErrorStyle.Render(string(code)), err.Error())
	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s\n", Indent(MutedStyle.Render(k+":")+" "+fmt.Sprint(details[k]), 1))
	}
	return b.String()
}
