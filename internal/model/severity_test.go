package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestGetSeverity tests the GetSeverity function.
func TestGetSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		findingType string
		expected    Severity
	}{
		{"exif_gps", SeverityCritical},
		{"exif_serial", SeverityHigh},
		{"exif_author", SeverityHigh},
		{"exif_camera", SeverityMedium},
		{"exif_computer", SeverityMedium},
		{"exif_software", SeverityLow},
		{"exif_datetime", SeverityLow},
		{"exif_present", SeverityInfo},
		{"unknown_type", SeverityInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.findingType, func(t *testing.T) {
			t.Parallel()
			if got := GetSeverity(tc.findingType); got != tc.expected {
				t.Errorf("GetSeverity(%q) = %v, expected %v", tc.findingType, got, tc.expected)
			}
		})
	}
}

// TestGetFindingInfo tests that every mapped type carries guidance.
func TestGetFindingInfo(t *testing.T) {
	t.Parallel()

	t.Run("mapped types have impact and recommendation", func(t *testing.T) {
		t.Parallel()
		for findingType, info := range findingInfoMapping {
			if info.Impact == "" {
				t.Errorf("%s: empty impact", findingType)
			}
			if info.Recommendation == "" {
				t.Errorf("%s: empty recommendation", findingType)
			}
		}
	})

	t.Run("unknown type falls back to info", func(t *testing.T) {
		t.Parallel()
		info := GetFindingInfo("does_not_exist")
		if info.Severity != SeverityInfo {
			t.Errorf("expected SeverityInfo, got %v", info.Severity)
		}
		if info.Recommendation == "" {
			t.Error("expected a default recommendation")
		}
	})
}

// TestAuditReportAddFindings tests severity counting.
func TestAuditReportAddFindings(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("/photos")
	if r.HasFindings() {
		t.Fatal("new report should have no findings")
	}

	r.AddFindings(
		NewFinding("exif_gps", "GPS", "", "GPSLatitude: 1", "a.jpg"),
		NewFinding("exif_camera", "Camera", "", "Make: X", "a.jpg"),
		NewFinding("exif_camera", "Camera", "", "Model: Y", "a.jpg"),
		NewFinding("exif_present", "EXIF", "", "", "b.jpg"),
	)

	if r.TotalFindings() != 4 {
		t.Errorf("expected 4 findings, got %d", r.TotalFindings())
	}
	if r.CriticalCount != 1 || r.MediumCount != 2 || r.InfoCount != 1 {
		t.Errorf("unexpected counts: critical=%d medium=%d info=%d",
			r.CriticalCount, r.MediumCount, r.InfoCount)
	}
	if got := len(r.GetFindingsBySeverity(SeverityMedium)); got != 2 {
		t.Errorf("expected 2 medium findings, got %d", got)
	}
	if r.Findings[0].SeverityText != "CRITICAL" {
		t.Errorf("expected SeverityText CRITICAL, got %q", r.Findings[0].SeverityText)
	}
}
