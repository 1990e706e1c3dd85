package audit

import (
	"errors"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/cardhash/internal/model"
)

// tagRule describes the finding produced for a group of EXIF tags.
type tagRule struct {
	findingType string
	title       string
	description string
}

// tagRules maps EXIF tag names to finding rules.
var tagRules = map[string]tagRule{}

func init() {
	register := func(rule tagRule, tags ...string) {
		for _, tag := range tags {
			tagRules[tag] = rule
		}
	}

	register(tagRule{
		findingType: "exif_camera",
		title:       "Camera information in EXIF",
		description: "The image records the camera make or model, which helps identify the device used.",
	}, "Make", "Model")
	register(tagRule{
		findingType: "exif_serial",
		title:       "Device serial number in EXIF",
		description: "The image records a device serial number, a unique identifier that links photos taken with the same device.",
	}, "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber")
	register(tagRule{
		findingType: "exif_software",
		title:       "Software information in EXIF",
		description: "The image records the software used to produce it.",
	}, "Software", "ProcessingSoftware")
	register(tagRule{
		findingType: "exif_author",
		title:       "Author or copyright in EXIF",
		description: "The image records author or copyright information that could identify its creator.",
	}, "Artist", "Author", "Copyright", "XPAuthor")
	register(tagRule{
		findingType: "exif_datetime",
		title:       "Timestamp in EXIF",
		description: "The image records when it was taken or edited, which hints at the author's timezone.",
	}, "DateTimeOriginal", "DateTimeDigitized", "DateTime")
	register(tagRule{
		findingType: "exif_computer",
		title:       "Host computer in EXIF",
		description: "The image records the name of the computer used to process it.",
	}, "HostComputer")
}

// gpsTags are merged into a single finding per image.
var gpsTags = map[string]bool{
	"GPSLatitudeRef":  true,
	"GPSLatitude":     true,
	"GPSLongitudeRef": true,
	"GPSLongitude":    true,
	"GPSAltitude":     true,
}

// AnalyzeData extracts EXIF metadata from image bytes and returns the
// findings for it. location names the image in the findings. Images without
// EXIF yield no findings; an EXIF block that cannot be parsed yields a
// single informational finding.
func AnalyzeData(data []byte, location string) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return findings
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil && !errors.Is(err, exif.ErrNoExif) {
		return append(findings, model.NewFinding(
			"exif_present",
			"Unreadable EXIF block",
			"The image carries an EXIF block that could not be parsed.",
			"",
			location,
		))
	}

	var gps []string
	for _, entry := range entries {
		tagName := entry.TagName
		value := strings.TrimSpace(entry.Formatted)

		if gpsTags[tagName] {
			gps = append(gps, tagName+": "+value)
			continue
		}

		rule, ok := tagRules[tagName]
		if !ok || value == "" {
			continue
		}
		findings = append(findings, model.NewFinding(
			rule.findingType,
			rule.title,
			rule.description,
			tagName+": "+value,
			location,
		))
	}

	if len(gps) > 0 {
		findings = append([]model.Finding{model.NewFinding(
			"exif_gps",
			"GPS coordinates in EXIF",
			"The image records where it was taken.",
			strings.Join(gps, ", "),
			location,
		)}, findings...)
	}

	if len(findings) == 0 && len(entries) > 0 {
		findings = append(findings, model.NewFinding(
			"exif_present",
			"EXIF metadata present",
			"The image carries EXIF metadata without identifying tags.",
			"",
			location,
		))
	}

	return findings
}
