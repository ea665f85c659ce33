// Package sql provides SQL injection screening for filter values that are
// interpolated into adapter queries as bind parameters.
package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a filter value that tripped the injection
// detector.
type InjectionCheckResult struct {
	IsSQLi      bool   // true when a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the pattern
	ParamName   string // column the filter targets
	ParamValue  any    // the rejected value
}

// CheckParameterForInjection runs libinjection over a filter value before it
// is bound into a loader query. Non-string values cannot carry injection
// payloads and always pass.
//
// Returns nil when the value is clean.
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		ParamName:   paramName,
		ParamValue:  value,
	}
}
