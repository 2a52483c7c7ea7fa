package docs

// EntryType classifies a documentation entry.
type EntryType string

// Entry type constants, matching the kOS doc index schema.
const (
	Structure EntryType = "structure"
	Suffix    EntryType = "suffix"
	Function  EntryType = "function"
	Keyword   EntryType = "keyword"
	Constant  EntryType = "constant"
	Command   EntryType = "command"
)

// IsValid checks if the type is one of the supported values.
func (t EntryType) IsValid() bool {
	switch t {
	case Structure, Suffix, Function, Keyword, Constant, Command:
		return true
	}
	return false
}

// AccessMode describes how a suffix may be used.
type AccessMode string

// Access mode constants.
const (
	AccessNone   AccessMode = ""
	AccessGet    AccessMode = "get"
	AccessSet    AccessMode = "set"
	AccessGetSet AccessMode = "get/set"
	AccessMethod AccessMode = "method"
)

// Entry is one unit of kOS reference documentation. Entries are immutable
// after index construction; the Index owns them exclusively.
type Entry struct {
	// ID is the unique, stable key, e.g. "SHIP:ALTITUDE" for a suffix.
	ID   string
	Name string
	Type EntryType

	// ParentStructure back-references the owning structure for suffixes.
	// Used only for lookup, never for ownership.
	ParentStructure string

	ReturnType  string
	Access      AccessMode
	Signature   string
	Description string
	Snippet     string
	SourceRef   string

	Tags    []string
	Aliases []string
	Related []string

	Deprecated      bool
	DeprecationNote string
}

// IndexMeta describes the provenance of a loaded doc index.
type IndexMeta struct {
	SchemaVersion  string
	ContentVersion string
	KOSMinVersion  string
	GeneratedAt    string
	SourceURL      string
}
