package performance

import (
	"errors"
	"strings"
)

// Performance analytics errors. Use errors.Is against these; the concrete
// error is usually an *AnalysisError carrying request context.
var (
	ErrInsufficientData       = errors.New("insufficient attendance data")
	ErrEmptyDataset           = errors.New("not enough employees with usable data for clustering")
	ErrModelNotFound          = errors.New("no trained clustering model; run clustering analysis first")
	ErrInvalidConfiguration   = errors.New("invalid analysis configuration")
	ErrFitFailed              = errors.New("clustering did not converge")
	ErrIncompatibleSnapshot   = errors.New("stored model snapshot is incompatible")
	ErrSnapshotChecksum       = errors.New("stored model snapshot is corrupted")
	ErrInvalidInsightRuleFile = errors.New("invalid insight rule file")
)

// AnalysisError wraps an error kind with the context a caller needs to decide
// whether to retry with different parameters.
type AnalysisError struct {
	Kind       error
	EmployeeID string
	Range      *DateRange
	Signature  *Signature
	Detail     string
	Err        error
}

func (e *AnalysisError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	var ctx []string
	if e.EmployeeID != "" {
		ctx = append(ctx, "employee="+e.EmployeeID)
	}
	if e.Range != nil {
		ctx = append(ctx, "range="+e.Range.String())
	}
	if e.Signature != nil {
		ctx = append(ctx, "signature="+e.Signature.String())
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *AnalysisError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
