package sql

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes a parameter value that tripped the SQLi screen.
type InjectionFinding struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // positional index ("0", "1", ...) or object key
}

func (f *InjectionFinding) String() string {
	return fmt.Sprintf("param %s matched injection fingerprint %s", f.ParamName, f.Fingerprint)
}

// ScreenParams runs libinjection over every string parameter value and returns
// a finding for each value that looks like a SQL injection payload. Non-string
// values cannot carry injection patterns and are skipped. Params may be nil,
// an array, or an object; any other shape yields no findings (shape validation
// happens earlier in the pipeline).
func ScreenParams(params any) []*InjectionFinding {
	var findings []*InjectionFinding

	check := func(name string, value any) {
		strValue, ok := value.(string)
		if !ok {
			return
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(strValue); isSQLi {
			findings = append(findings, &InjectionFinding{
				Fingerprint: string(fingerprint),
				ParamName:   name,
			})
		}
	}

	switch p := params.(type) {
	case []any:
		for i, v := range p {
			check(fmt.Sprintf("%d", i), v)
		}
	case map[string]any:
		for name, v := range p {
			check(name, v)
		}
	}

	return findings
}
