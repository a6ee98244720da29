package types

import (
	"time"

	"github.com/uptrace/bun"
)

// LeaderboardViewName is the materialized view holding ranked influence per group.
const LeaderboardViewName = "influence_leaderboard"

// MaterializedViewRefresh tracks when a materialized view was last refreshed.
type MaterializedViewRefresh struct {
	bun.BaseModel `bun:"table:materialized_view_refreshes"`

	ViewName    string    `bun:",pk"      json:"view_name"`
	LastRefresh time.Time `bun:",notnull" json:"last_refresh"`
}
