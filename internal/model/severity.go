package model

// Severity represents how much an image's metadata reveals about its author.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates metadata with no direct privacy impact.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor leaks such as editing software or timestamps.
	SeverityLow

	// SeverityMedium indicates device clues such as camera make and model.
	SeverityMedium

	// SeverityHigh indicates identifying data such as serial numbers or author names.
	SeverityHigh

	// SeverityCritical indicates location disclosure (GPS coordinates).
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This is the single source of truth for audit risk levels.
var findingInfoMapping = map[string]FindingInfo{
	"exif_gps": {
		Severity:       SeverityCritical,
		Impact:         "GPS coordinates reveal where the photo was taken, often the author's home or workplace.",
		Recommendation: "Strip GPS tags before publishing (e.g. exiftool -gps:all= image.jpg).",
	},
	"exif_serial": {
		Severity:       SeverityHigh,
		Impact:         "A device serial number uniquely identifies the camera across every photo it took.",
		Recommendation: "Strip maker notes and serial number tags before publishing.",
	},
	"exif_author": {
		Severity:       SeverityHigh,
		Impact:         "Author or copyright tags may carry the creator's real name.",
		Recommendation: "Remove Artist, Author and Copyright tags unless attribution is intended.",
	},
	"exif_camera": {
		Severity:       SeverityMedium,
		Impact:         "Camera make and model narrow down the device used.",
		Recommendation: "Remove Make and Model tags if the device should not be disclosed.",
	},
	"exif_computer": {
		Severity:       SeverityMedium,
		Impact:         "The host computer name often contains a user or machine name.",
		Recommendation: "Remove the HostComputer tag.",
	},
	"exif_software": {
		Severity:       SeverityLow,
		Impact:         "Software tags reveal editing tools and operating system versions.",
		Recommendation: "Remove Software and ProcessingSoftware tags.",
	},
	"exif_datetime": {
		Severity:       SeverityLow,
		Impact:         "Timestamps can reveal the author's timezone and activity patterns.",
		Recommendation: "Remove or normalize DateTime tags.",
	},
	"exif_present": {
		Severity:       SeverityInfo,
		Impact:         "The image carries EXIF metadata.",
		Recommendation: "Consider stripping all metadata from published images.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
