package model

import "time"

// Finding is a single metadata audit result.
type Finding struct {
	// Type is the finding type identifier (see findingInfoMapping).
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the tag and its value, e.g. "Model: PixelCam 3".
	Value string `json:"value,omitempty"`

	// Location is the file the finding was discovered in.
	Location string `json:"location,omitempty"`
}

// NewFinding builds a Finding, filling severity, impact and recommendation
// from the finding type.
func NewFinding(findingType, title, description, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}

// AuditReport summarizes a metadata audit of one directory.
type AuditReport struct {
	Directory     string    `json:"directory"`
	DateAudited   time.Time `json:"date_audited"`
	FilesScanned  int       `json:"files_scanned"`
	Findings      []Finding `json:"findings"`
	CriticalCount int       `json:"critical_count"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
	InfoCount     int       `json:"info_count"`
}

// NewAuditReport creates an empty AuditReport for dir.
func NewAuditReport(dir string) *AuditReport {
	return &AuditReport{
		Directory:   dir,
		DateAudited: time.Now(),
		Findings:    make([]Finding, 0),
	}
}

// AddFindings appends findings and updates the severity counters.
func (r *AuditReport) AddFindings(findings ...Finding) {
	for _, f := range findings {
		r.Findings = append(r.Findings, f)
		switch f.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityHigh:
			r.HighCount++
		case SeverityMedium:
			r.MediumCount++
		case SeverityLow:
			r.LowCount++
		default:
			r.InfoCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (r *AuditReport) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings returns true if there are any findings.
func (r *AuditReport) HasFindings() bool {
	return len(r.Findings) > 0
}

// GetFindingsBySeverity returns all findings with the given severity.
func (r *AuditReport) GetFindingsBySeverity(severity Severity) []Finding {
	result := make([]Finding, 0)
	for _, f := range r.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}
