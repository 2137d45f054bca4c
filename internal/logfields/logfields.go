package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyOutput     = "output"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyTarget     = "target"
	KeySource     = "source"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Output(name string) slog.Attr    { return slog.String(KeyOutput, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
