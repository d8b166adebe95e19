package policy

// shellInjectionRegex is built by concatenation because the pattern itself
// contains a backtick.
const shellInjectionRegex = `(?i)(\|\s*sh|\|\s*bash|` + "`.*`" + `|\$\(.*\))`

// DefaultPolicy returns the built-in pattern tables. The order of the risk
// rules is the evaluation order and therefore the order categories appear
// in results and audit records.
func DefaultPolicy() *Policy {
	return &Policy{
		Risk: []Rule{
			{
				Category: RiskCredentialExposure,
				Regex:    `(?i)(password|secret|key|token)\s*[=:]\s*["']?[a-zA-Z0-9]{8,}`,
				Reason:   "Credential assignment with a literal value.",
			},
			{
				Category: RiskNetworkScanning,
				Regex:    `(?i)(nmap|port\s+scan|vulnerability\s+scan)`,
				Reason:   "Network scanning or reconnaissance.",
			},
			{
				Category: RiskSQLInjection,
				Regex:    `(?i)(union\s+select|drop\s+table|delete\s+from)`,
				Reason:   "SQL injection or destructive SQL.",
			},
			{
				Category: RiskShellInjection,
				Regex:    shellInjectionRegex,
				Reason:   "Pipe-to-shell or command substitution.",
			},
			{
				Category: RiskSuspiciousNetwork,
				Regex:    `(?i)(curl.*-X\s+POST|wget.*--post)`,
				Reason:   "Outbound POST request.",
			},
			{
				Category: RiskDestructiveOperations,
				Regex:    `(?i)(rm\s+-rf|format\s+c:|del\s+/s)`,
				Reason:   "Destructive file system operation.",
			},
			{
				Category: RiskSensitiveInfoRequest,
				Regex:    `(?i)(ssh\s+key|private\s+key|certificate)`,
				Reason:   "Request for keys or certificates.",
			},
			{
				Category: RiskSensitiveInfoRequest,
				Regex:    `(?i)(database\s+password|admin\s+credentials)`,
				Reason:   "Request for privileged credentials.",
			},
			{
				Category: RiskSensitiveInfoRequest,
				Regex:    `(?i)(api\s+key|access\s+token)`,
				Reason:   "Request for API keys or tokens.",
			},
		},
		Compliance: []ComplianceRule{
			{Category: ComplianceDataPrivacy, Regex: `(?i)(personal\s+data|pii|personally\s+identifiable)`},
			{Category: ComplianceDataPrivacy, Regex: `(?i)(social\s+security|credit\s+card|ssn)`},
			{Category: ComplianceDataPrivacy, Regex: `(?i)(gdpr|hipaa|pci\s+dss)`},
		},
	}
}
