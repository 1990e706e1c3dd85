// Package progress prints the "<done> / <total>" indicator shown while a
// manifest is generated. On a terminal the line is rewritten in place with a
// carriage return; otherwise each update is a separate line so logs and CI
// output stay readable.
package progress
