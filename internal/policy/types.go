package policy

import "strings"

type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionBlock Decision = "BLOCK"
)

// Action returns the audit log spelling of the decision.
func (d Decision) Action() string {
	if d == DecisionBlock {
		return "BLOCKED"
	}
	return "ALLOWED"
}

// RiskCategory tags a blocking finding.
type RiskCategory string

const (
	RiskCredentialExposure    RiskCategory = "CREDENTIAL_EXPOSURE"
	RiskNetworkScanning       RiskCategory = "NETWORK_SCANNING"
	RiskSQLInjection          RiskCategory = "SQL_INJECTION"
	RiskShellInjection        RiskCategory = "SHELL_INJECTION"
	RiskSuspiciousNetwork     RiskCategory = "SUSPICIOUS_NETWORK"
	RiskDestructiveOperations RiskCategory = "DESTRUCTIVE_OPERATIONS"
	RiskSensitiveInfoRequest  RiskCategory = "SENSITIVE_INFO_REQUEST"
)

// RiskCategories lists every known risk category in evaluation order.
var RiskCategories = []RiskCategory{
	RiskCredentialExposure,
	RiskNetworkScanning,
	RiskSQLInjection,
	RiskShellInjection,
	RiskSuspiciousNetwork,
	RiskDestructiveOperations,
	RiskSensitiveInfoRequest,
}

// ComplianceCategory tags an advisory finding. It never blocks.
type ComplianceCategory string

const (
	ComplianceDataPrivacy ComplianceCategory = "DATA_PRIVACY"
)

// ParseRiskCategory accepts a category name in any case.
func ParseRiskCategory(s string) (RiskCategory, bool) {
	name := RiskCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range RiskCategories {
		if c == name {
			return c, true
		}
	}
	return "", false
}

// Policy holds the uncompiled pattern tables. Risk rules are evaluated in
// order and all of them run; compliance rules stop at the first hit.
type Policy struct {
	Risk       []Rule
	Compliance []ComplianceRule
}

type Rule struct {
	Category RiskCategory `yaml:"category"`
	Regex    string       `yaml:"regex"`
	Reason   string       `yaml:"reason,omitempty"`
}

type ComplianceRule struct {
	Category ComplianceCategory
	Regex    string
}

// Result is the outcome of classifying one prompt.
type Result struct {
	Risks      []RiskCategory
	Compliance []ComplianceCategory
	Decision   Decision
}

func (r Result) Blocked() bool {
	return r.Decision == DecisionBlock
}

// RiskNames returns the triggered risk categories as plain strings.
func (r Result) RiskNames() []string {
	names := make([]string, 0, len(r.Risks))
	for _, c := range r.Risks {
		names = append(names, string(c))
	}
	return names
}

// ComplianceNames returns the triggered compliance categories as plain strings.
func (r Result) ComplianceNames() []string {
	names := make([]string, 0, len(r.Compliance))
	for _, c := range r.Compliance {
		names = append(names, string(c))
	}
	return names
}
