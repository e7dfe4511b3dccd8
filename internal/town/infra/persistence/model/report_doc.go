package model

import "time"

// ReportDoc 归档集合 visit_reports 的文档。
type ReportDoc struct {
	ID        int64            `bson:"_id"`
	VillageID int64            `bson:"village_id"`
	Kind      string           `bson:"kind"`
	At        time.Time        `bson:"at"`
	Karma     int64            `bson:"karma,omitempty"`
	Resources map[string]int64 `bson:"resources,omitempty"`
	Defeated  []int64          `bson:"defeated,omitempty"`
	Survivors []int64          `bson:"survivors,omitempty"`
	Defence   int              `bson:"defence,omitempty"`
}
