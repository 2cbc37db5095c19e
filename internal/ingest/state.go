package ingest

import (
	"time"

	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
)

// sourceState is what the pipeline remembers about one workbook. The
// slices are never modified after a load, so copies of a State may share
// them.
type sourceState struct {
	file        model.SourceFile
	fingerprint model.Fingerprint
	loaded      bool
	inventory   []model.InventoryRecord
	master      []model.MasterLocation
	skipped     []model.SkippedRow
}

// State is the session context threaded through refresh passes: the last
// good snapshot, what was observed about each workbook, and the outcome of
// the latest pass. Refresh returns a new State and never changes the one
// it was given.
type State struct {
	// Snapshot is the last successfully built snapshot, nil before the
	// first successful pass.
	Snapshot *inventory.Snapshot
	// CheckedAt is when the latest pass ran.
	CheckedAt time.Time
	// LoadedAt is when Snapshot was built.
	LoadedAt time.Time
	// LastError describes the latest failed pass; it is cleared by a
	// successful one.
	LastError *model.LoadError
	// Stale is set when the latest pass failed and Snapshot is older data.
	Stale bool
	// Summary holds the metrics of the latest pass that built a snapshot.
	Summary model.RefreshSummary

	inv    sourceState
	master sourceState
}

// NewState starts a session for the given workbooks. An empty masterPath
// disables the master locations source.
func NewState(inventoryPath, masterPath string) State {
	s := State{inv: sourceState{file: model.NewSourceFile(model.RoleInventory, inventoryPath)}}
	if masterPath != "" {
		s.master = sourceState{file: model.NewSourceFile(model.RoleMaster, masterPath)}
	}
	return s
}

// Source returns the last observed metadata of a workbook.
func (s State) Source(role model.Role) model.SourceFile {
	if role == model.RoleMaster {
		return s.master.file
	}
	return s.inv.file
}

// HasSnapshot reports whether any pass has succeeded.
func (s State) HasSnapshot() bool {
	return s.Snapshot != nil
}

func (s *State) source(role model.Role) *sourceState {
	if role == model.RoleMaster {
		return &s.master
	}
	return &s.inv
}

func (s State) roles() []model.Role {
	if s.master.file.Path == "" {
		return []model.Role{model.RoleInventory}
	}
	return []model.Role{model.RoleInventory, model.RoleMaster}
}
