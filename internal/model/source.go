package model

import "time"

// Role identifies which of the two tracked workbooks a file plays.
type Role string

const (
	RoleInventory Role = "inventory"
	RoleMaster    Role = "master"
)

// SourceFile is a tracked workbook on a shared or cloud-synced path.
// ModTime and Size hold the last observed metadata.
type SourceFile struct {
	Role     Role
	Path     string
	ModTime  time.Time
	Size     int64
	Observed bool
}

// NewSourceFile registers a path that has not been observed yet.
func NewSourceFile(role Role, path string) SourceFile {
	return SourceFile{Role: role, Path: path}
}

// StagedCopy is a process-owned duplicate of a SourceFile.
type StagedCopy struct {
	SourcePath string
	StagedPath string
	CopiedAt   time.Time
	Size       int64
	SHA256     string
}

// Fingerprint identifies the bytes a snapshot was built from.
type Fingerprint struct {
	Role    Role      `json:"role"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	SHA256  string    `json:"sha256,omitempty"`
	Staged  bool      `json:"staged"`
}
