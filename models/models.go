// Package models holds the GORM-tagged row structs that back the Symbol
// Database (spec §4.3, §6). These structs are the authoritative source of
// truth; every other index in the system is a rebuildable projection of
// them.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Workspace identifies an isolated root directory tree. Every File,
// Symbol, Relationship, and Identifier row carries a WorkspaceID.
type Workspace struct {
	ID   string `gorm:"primaryKey;type:varchar(64)"`
	Root string `gorm:"type:text;not null"`
	Type string `gorm:"type:varchar(16);not null"` // "primary" or "reference"
}

func (Workspace) TableName() string { return "workspaces" }

// File is the identity-by-path record for a source file (spec §3 "File").
type File struct {
	Path         string `gorm:"primaryKey;type:text"`
	WorkspaceID  string `gorm:"type:varchar(64);index:idx_files_workspace_path"`
	Language     string `gorm:"type:varchar(32);index"`
	Hash         string `gorm:"type:varchar(64)"`
	Size         int64
	LastModified int64 // unix millis
	LastIndexed  int64 // unix millis
	SymbolCount  int
	Content      *string `gorm:"type:text"` // optional stored full text
}

func (File) TableName() string { return "files" }

// Symbol is a named, located program entity extracted from a File
// (spec §3 "Symbol").
type Symbol struct {
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	WorkspaceID string `gorm:"type:varchar(64);index:idx_symbols_workspace_name"`
	FilePath   string `gorm:"type:text;index:idx_symbols_workspace_file"`
	Name       string `gorm:"type:text;index:idx_symbols_workspace_name"`
	Kind       string `gorm:"type:varchar(32);index"`
	Language   string `gorm:"type:varchar(32)"`
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	StartByte  int
	EndByte    int
	ParentID   *string `gorm:"type:varchar(64)"`
	Signature  *string `gorm:"type:text"`
	DocComment *string `gorm:"type:text"`
	Visibility *string        `gorm:"type:varchar(16)"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"` // free-form extractor metadata
	Confidence float64
	CodeContext *string `gorm:"type:text"`
}

func (Symbol) TableName() string { return "symbols" }

// Relationship is a directed edge between two symbols (spec §3
// "Relationship").
type Relationship struct {
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	WorkspaceID  string `gorm:"type:varchar(64);index"`
	FromSymbolID string `gorm:"type:varchar(64);index:idx_rel_from"`
	ToSymbolID   string `gorm:"type:varchar(64);index:idx_rel_to"`
	Kind         string `gorm:"type:varchar(32)"`
	FilePath     string `gorm:"type:text"`
	LineNumber   int
	Confidence   float64
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
}

func (Relationship) TableName() string { return "relationships" }

// Identifier is a flat occurrence record, independent of whether the
// extractor emitted a full Relationship edge (spec §3 "Identifier
// (reference-site)").
type Identifier struct {
	ID                 string `gorm:"primaryKey;type:varchar(64)"`
	WorkspaceID        string `gorm:"type:varchar(64);index"`
	Name               string `gorm:"type:text;index:idx_identifiers_name"`
	Kind               string `gorm:"type:varchar(16)"`
	Language           string `gorm:"type:varchar(32)"`
	FilePath           string `gorm:"type:text;index"`
	StartLine          int
	StartCol           int
	EndLine            int
	EndCol             int
	StartByte          int
	EndByte            int
	ContainingSymbolID *string `gorm:"type:varchar(64)"`
	Confidence         float64
}

func (Identifier) TableName() string { return "identifiers" }

// IndexedAt is a convenience helper converting an int64 millisecond
// timestamp field back to time.Time for display purposes.
func IndexedAt(millis int64) time.Time {
	return time.UnixMilli(millis)
}
