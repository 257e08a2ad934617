package types

import "fmt"

// Severity classifies a Diagnostic.
type Severity uint8

// Diagnostic severities, most severe first.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a non-fatal finding produced by the checker, located by
// byte offset and length in the expression source.
type Diagnostic struct {
	Offset   int      `json:"offset"`
	Length   int      `json:"length"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// String formats the diagnostic as "severity [offset:length] message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%d:%d] %s", d.Severity, d.Offset, d.Length, d.Message)
}

// NodeDiagnostic builds a diagnostic spanning node.
func NodeDiagnostic(node *ASTNode, severity Severity, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Offset:   node.Offset,
		Length:   node.Length,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	}
}
