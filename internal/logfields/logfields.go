package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyDocument   = "document"
	KeyBlock      = "block"
	KeyBlocks     = "blocks"
	KeyBlockKind  = "block_kind"
	KeyPipeline   = "pipeline"
	KeyStage      = "stage"
	KeyArtifact   = "artifact"
	KeyPath       = "path"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Document(p string) slog.Attr      { return slog.String(KeyDocument, p) }
func Block(i int) slog.Attr            { return slog.Int(KeyBlock, i) }
func Blocks(n int) slog.Attr           { return slog.Int(KeyBlocks, n) }
func BlockKind(k string) slog.Attr     { return slog.String(KeyBlockKind, k) }
func Pipeline(id string) slog.Attr     { return slog.String(KeyPipeline, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Artifact(p string) slog.Attr      { return slog.String(KeyArtifact, p) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr            { return slog.Int(KeyFiles, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
