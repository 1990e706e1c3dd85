// Package audit inspects the images of a card directory for metadata that
// would be published along with them.
//
// Images listed in cards.json are served to every client, so EXIF tags they
// carry (GPS position, camera serial numbers, author names, host names) leak
// to anyone who downloads them. The Auditor reports such tags as findings
// graded by model.Severity.
package audit
