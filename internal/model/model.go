// Package model defines the persisted record shapes shared by the store,
// indexer, resolver, and graph packages.
package model

import "time"

// SymbolKind enumerates the declaration kinds a symbol row may carry.
type SymbolKind string

const (
	SymbolFunction    SymbolKind = "function"
	SymbolClass       SymbolKind = "class"
	SymbolInterface   SymbolKind = "interface"
	SymbolEnum        SymbolKind = "enum"
	SymbolType        SymbolKind = "type"
	SymbolVariable    SymbolKind = "variable"
	SymbolMethod      SymbolKind = "method"
	SymbolProperty    SymbolKind = "property"
	SymbolGetter      SymbolKind = "getter"
	SymbolSetter      SymbolKind = "setter"
	SymbolConstructor SymbolKind = "constructor"
)

// RelationType enumerates the kinds of directed edge a relation row may carry.
type RelationType string

const (
	RelationImports       RelationType = "imports"
	RelationTypeRef       RelationType = "type-references"
	RelationReexports     RelationType = "re-exports"
	RelationCalls         RelationType = "calls"
	RelationExtends       RelationType = "extends"
	RelationImplements    RelationType = "implements"
)

// Modifier is a single bit in a symbol's modifier set.
type Modifier uint16

const (
	ModPrivate Modifier = 1 << iota
	ModProtected
	ModPublic
	ModStatic
	ModReadonly
	ModAbstract
	ModAsync
	ModExport
	ModDefault
)

func (m Modifier) Has(flag Modifier) bool { return m&flag != 0 }

// File is the File record of §3: identifies an indexed source file.
type File struct {
	Project     string
	Path        string // relative to project root
	MTimeMillis int64
	Size        int64
	ContentHash string
	UpdatedAt   time.Time
	LineCount   *int
}

// Symbol is the Symbol record of §3: a named declaration within a file.
type Symbol struct {
	ID          int64
	Project     string
	FilePath    string
	Name        string
	Kind        SymbolKind
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	Exported    bool
	Signature   *string // "params:<n>|async:<0|1>" for callables; nil otherwise
	Fingerprint string
	DetailJSON  string
	Modifiers   Modifier
}

// Relation is the Relation record of §3: a directed edge between two
// (file, optional symbol) endpoints, possibly across projects.
type Relation struct {
	ID            int64
	Project       string
	Type          RelationType
	SrcFilePath   string
	SrcSymbolName *string
	DstProject    string
	DstFilePath   string
	DstSymbolName *string
	MetaJSON      string
}

// Ownership is the watcher_owner singleton row of §3.
type Ownership struct {
	PID          int
	HeartbeatAt  time.Time
	InstanceID   *string
}

// RelationFilter narrows a relations.search(filter) call.
type RelationFilter struct {
	Project     string
	Type        RelationType
	SrcFilePath string
	DstProject  string
	DstFilePath string
}
