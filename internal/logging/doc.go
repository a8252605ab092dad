// Package logging wraps log/slog with larder's output conventions: a
// console handler that renders one scannable line per event and a JSON
// handler for machine consumption, both appended to the run log inside the
// backup destination alongside stdout.
package logging
