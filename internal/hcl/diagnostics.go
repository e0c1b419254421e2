package hcl

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/liveui/internal/artifact"
)

// convertDiagnostics flattens HCL diagnostics into the compiler's format.
func convertDiagnostics(diags hcl.Diagnostics) artifact.Diagnostics {
	if len(diags) == 0 {
		return nil
	}
	out := make(artifact.Diagnostics, 0, len(diags))
	for _, d := range diags {
		ad := artifact.Diagnostic{
			Severity: artifact.SeverityError,
			Message:  d.Summary,
		}
		if d.Severity == hcl.DiagWarning {
			ad.Severity = artifact.SeverityWarning
		}
		if d.Detail != "" {
			ad.Message += ": " + d.Detail
		}
		if d.Subject != nil {
			ad.Line = d.Subject.Start.Line
			ad.Column = d.Subject.Start.Column
		}
		out = append(out, ad)
	}
	return out
}

func toRange(r hcl.Range) artifact.Range {
	return artifact.Range{Line: r.Start.Line, Column: r.Start.Column}
}
