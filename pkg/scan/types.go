package scan

// Severity ranks a finding. Values match the API's wire format.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Rank orders severities from INFO (0) to CRITICAL (4); unknown values rank
// below INFO.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	case SeverityInfo:
		return 0
	default:
		return -1
	}
}

// RiskLevel grades the compositional risk of the whole dependency set.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskNone     RiskLevel = "NONE"
)

// IntegrityStatus compares a lockfile hash to the registry's.
type IntegrityStatus string

const (
	IntegrityMatch     IntegrityStatus = "MATCH"
	IntegrityMismatch  IntegrityStatus = "MISMATCH"
	IntegrityUnknown   IntegrityStatus = "UNKNOWN"
	IntegrityMalicious IntegrityStatus = "MALICIOUS"
)

// Request is the body of a scan submission.
type Request struct {
	Dependencies []RequestDependency `json:"dependencies"`
}

// RequestDependency is one package submitted for scanning. Hash carries the
// lockfile integrity value when known.
type RequestDependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Hash    string `json:"hash,omitempty"`
}

// Finding is a source-to-sink vulnerability chain between two packages.
type Finding struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Severity      Severity `json:"severity"`
	CVSS          float64  `json:"cvss"`
	SourcePackage string   `json:"sourcePackage"`
	SinkPackage   string   `json:"sinkPackage"`
	Description   string   `json:"description"`
	PocSnippet    string   `json:"pocSnippet,omitempty"`
	ShimURL       string   `json:"shimUrl,omitempty"`
	WAFRule       string   `json:"wafRule,omitempty"`
}

// SkeletonKeyMatch is a known gadget property that several packages
// together make reachable.
type SkeletonKeyMatch struct {
	SkeletonKeyID   string   `json:"skeletonKeyId"`
	Prop            string   `json:"prop"`
	Context         string   `json:"context"`
	ImpactType      string   `json:"impactType"`
	Severity        Severity `json:"severity"`
	CVSS            float64  `json:"cvss"`
	MatchedPackages []string `json:"matchedPackages"`
	PocFull         string   `json:"pocFull,omitempty"`
	ShimURL         string   `json:"shimUrl,omitempty"`
}

// CompositionalRisk summarizes attack capabilities enabled by the package
// set as a whole.
type CompositionalRisk struct {
	SourcePackages []string  `json:"sourcePackages"`
	SinkPackages   []string  `json:"sinkPackages"`
	SpawnPackages  []string  `json:"spawnPackages"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	EnabledAttacks []string  `json:"enabledAttacks"`
}

// ZombieWarning flags a package that looks abandoned or taken over.
type ZombieWarning struct {
	PackageName string        `json:"packageName"`
	ZombieScore float64       `json:"zombieScore"`
	Factors     ZombieFactors `json:"factors"`
}

// ZombieFactors are the signals behind a zombie score.
type ZombieFactors struct {
	MaintainerCount  int  `json:"maintainerCount"`
	DaysSincePublish int  `json:"daysSincePublish"`
	OwnershipChanged bool `json:"ownershipChanged"`
	DownloadsWeekly  int  `json:"downloadsWeekly"`
}

// IntegrityAlert reports a lockfile hash that does not match the registry.
type IntegrityAlert struct {
	PackageName  string          `json:"packageName"`
	Version      string          `json:"version"`
	Status       IntegrityStatus `json:"status"`
	OfficialHash string          `json:"officialHash,omitempty"`
	SeenCount    int             `json:"seenCount,omitempty"`
	FirstSeen    string          `json:"firstSeen,omitempty"`
}

// Meta describes the scan itself.
type Meta struct {
	PackagesScanned int    `json:"packagesScanned"`
	DurationMS      int64  `json:"durationMs"`
	Tier            string `json:"tier"`
}

// Response is the result of a scan.
type Response struct {
	Findings           []Finding          `json:"findings"`
	SkeletonKeyMatches []SkeletonKeyMatch `json:"skeletonKeyMatches"`
	CompositionalRisk  CompositionalRisk  `json:"compositionalRisk"`
	ZombieWarnings     []ZombieWarning    `json:"zombieWarnings"`
	IntegrityAlerts    []IntegrityAlert   `json:"integrityAlerts"`
	Meta               Meta               `json:"meta"`
}
