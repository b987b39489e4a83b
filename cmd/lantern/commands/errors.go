package commands

import (
	"fmt"
	"strings"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
)

// FormatError renders a command failure for the terminal. Graph errors lead
// with their caller-facing message, and hints go on their own lines.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	if ge, ok := grapherr.As(err); ok {
		fmt.Fprintf(&b, "%s: %v", ge.ToUIMessage(), err)
	} else {
		b.WriteString(err.Error())
	}
	if hint := errors.FlattenHints(err); hint != "" {
		b.WriteString("\nhint: ")
		b.WriteString(hint)
	}
	return b.String()
}
