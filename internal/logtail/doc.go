// Package logtail reads the last lines of the diagnostics log.
//
// Read seeks to the end of the file and scans backwards in fixed-size chunks,
// so the cost depends on the number of lines requested rather than the size
// of the log. The UI uses it to show recent diagnostics without leaving the
// editor.
package logtail
