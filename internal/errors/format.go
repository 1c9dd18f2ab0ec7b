package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for the exit diagnostic written to stderr.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var he *HostError
	if !errors.As(err, &he) {
		he = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", he.Message))
	if he.Cause != nil && he.Cause.Error() != he.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", he.Cause))
	}
	if he.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", he.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", he.Code))
	return sb.String()
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	var he *HostError
	if !errors.As(err, &he) {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", he.Code),
		slog.String("error", he.Message),
		slog.String("category", string(he.Category)),
		slog.String("severity", string(he.Severity)),
	}
	if he.Cause != nil {
		attrs = append(attrs, slog.String("cause", he.Cause.Error()))
	}

	keys := make([]string, 0, len(he.Details))
	for k := range he.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, he.Details[k]))
	}
	return attrs
}
