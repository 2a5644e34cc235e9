package stage

type specKind int

const (
	kindConcat specKind = iota
	kindReady
	kindFactory
)

// ConcatName is the pipeline entry denoting the builtin join.
const ConcatName = "concat"

// Spec is one entry of a configured stage list: the concat sentinel, a ready
// Stage, or a Factory invoked once per pipeline run.
type Spec struct {
	kind    specKind
	name    string
	ready   Stage
	factory Factory
}

// Concat returns the builtin join entry.
func Concat() Spec {
	return Spec{kind: kindConcat, name: ConcatName}
}

// Ready wraps an existing Stage. The same instance is shared by every run.
func Ready(s Stage) Spec {
	return Spec{kind: kindReady, name: s.Name(), ready: s}
}

// FromFactory wraps a Factory.
func FromFactory(name string, f Factory) Spec {
	return Spec{kind: kindFactory, name: name, factory: f}
}

// IsConcat reports whether s is the builtin join entry.
func (s Spec) IsConcat() bool {
	return s.kind == kindConcat
}

// Name returns the stage name used in logs and metrics.
func (s Spec) Name() string {
	return s.name
}

// Resolve returns the Stage to run. A concat entry joins into outputName
// with newLine as separator.
func (s Spec) Resolve(outputName, newLine string) Stage {
	switch s.kind {
	case kindConcat:
		return NewConcat(outputName, newLine)
	case kindFactory:
		return s.factory()
	default:
		return s.ready
	}
}
