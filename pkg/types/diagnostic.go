package types

import "fmt"

// Diagnostic severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Diagnostic is a non-fatal finding reported by validation or loading.
// Callers decide how to surface it.
type Diagnostic struct {
	Severity string `json:"severity"`
	Source   string `json:"source,omitempty"` // Unit file the finding refers to, when known.
	Entry    string `json:"entry,omitempty"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	out := d.Severity + ":"
	if d.Source != "" {
		out += " " + d.Source + ":"
	}
	if d.Entry != "" {
		out += fmt.Sprintf(" entry %q", d.Entry)
	}
	if d.Item != "" {
		out += fmt.Sprintf(" item %q", d.Item)
	}
	return out + " " + d.Message
}
