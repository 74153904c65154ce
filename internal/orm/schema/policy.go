package schema

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Severity governs what happens when a field falls back to Mixed
type Severity int

const (
	SeverityAllow Severity = iota
	SeverityWarn
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityAllow:
		return "ALLOW"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "unknown"
	}
}

// Ptr returns a pointer to a copy of s, for option structs
func (s Severity) Ptr() *Severity {
	return &s
}

// ParseSeverity accepts a severity name (ALLOW, WARN, ERROR, any case) or
// its numeric value.
func ParseSeverity(value string) (Severity, error) {
	v := strings.TrimSpace(value)
	if n, err := strconv.Atoi(v); err == nil {
		if n < int(SeverityAllow) || n > int(SeverityError) {
			return 0, fmt.Errorf("severity %d is out of range", n)
		}
		return Severity(n), nil
	}
	switch strings.ToUpper(v) {
	case "ALLOW":
		return SeverityAllow, nil
	case "WARN":
		return SeverityWarn, nil
	case "ERROR":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("%q is not a valid severity", value)
	}
}

// defaultGlobalOptions returns the options seeded onto classes that have
// none of their own.
func defaultGlobalOptions() *ModelOptions {
	return &ModelOptions{
		SchemaOptions: Options{},
		Options:       ClassOptions{AllowMixed: SeverityWarn.Ptr()},
	}
}

// SetGlobalOptions merges opts into the process-wide defaults. Classes
// pick the defaults up the first time they are compiled.
func (c *Compiler) SetGlobalOptions(opts *ModelOptions) {
	c.global = c.global.Merge(opts)
	c.logger.Info("global options updated",
		zap.Any("schemaOptions", c.global.SchemaOptions),
		zap.Stringer("allowMixed", c.severityOf(c.global)),
	)
}

// GlobalOptions returns a copy of the process-wide defaults
func (c *Compiler) GlobalOptions() *ModelOptions {
	return c.global.Clone()
}

func (c *Compiler) severityOf(opts *ModelOptions) Severity {
	if opts == nil || opts.Options.AllowMixed == nil {
		return SeverityWarn
	}
	return *opts.Options.AllowMixed
}

// warnMixed applies the ambiguity policy of cl to a Mixed fallback
func (c *Compiler) warnMixed(cl *Class, name, key string) error {
	switch c.severityOf(c.classOptions(cl)) {
	case SeverityAllow:
		return nil
	case SeverityError:
		return newError(ErrMixedNotAllowed, name, key, nil, "")
	default:
		c.diagnose(DiagMixed, name, key, `setting "Mixed" for the path`)
		return nil
	}
}

// diagnose records a non-fatal finding and logs it
func (c *Compiler) diagnose(code, class, field, message string) {
	d := Diagnostic{Code: code, Class: class, Field: field, Message: message}
	c.diagnostics = append(c.diagnostics, d)
	c.logger.Warn(message,
		zap.String("class", class),
		zap.String("field", field),
		zap.String("code", code),
	)
}

// Diagnostics returns every diagnostic recorded so far
func (c *Compiler) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// ResetDiagnostics drops the recorded diagnostics
func (c *Compiler) ResetDiagnostics() {
	c.diagnostics = nil
}
