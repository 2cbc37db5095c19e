package sql

import (
	"embed"
)

// Migrations holds the schema files applied by db.ApplyMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_snapshot.sql
var RegisterSnapshot string

//go:embed queries/insert_status_count.sql
var InsertStatusCount string

//go:embed queries/deactivate_older_snapshots.sql
var DeactivateOlderSnapshots string

//go:embed queries/activate_snapshot.sql
var ActivateSnapshot string

//go:embed queries/current_snapshot.sql
var CurrentSnapshot string

//go:embed queries/status_counts.sql
var StatusCounts string

//go:embed queries/prune_snapshots.sql
var PruneSnapshots string
