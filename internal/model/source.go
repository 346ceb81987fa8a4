package model

// Path represents a file system path or location URL.
type Path string

// StdinPath is the path argument that selects standard input.
const StdinPath Path = "-"

// SourceFormat selects the parser used for a source.
type SourceFormat string

const (
	// FormatRuby is Ruby source text.
	FormatRuby SourceFormat = "ruby"
	// FormatSexp is a pre-parsed tree written as nested YAML or JSON arrays.
	FormatSexp SourceFormat = "sexp"
)

// Source is one input unit of an analysis run.
type Source struct {
	Path   Path
	Format SourceFormat
}
