package model

import (
	"time"

	"gorm.io/datatypes"
)

// Match sources.
const (
	SourceAPI   = "api"
	SourceArena = "arena"
)

// MatchRecord is one finished simulated match.
type MatchRecord struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Maze           string         `gorm:"index:idx_match_maze_score,priority:1;size:64;not null" json:"maze"`
	Outcome        string         `gorm:"size:16;not null" json:"outcome"`
	Ticks          int            `json:"ticks"`
	Captures       int            `json:"captures"`
	DefendersEaten int            `json:"defenders_eaten"`
	AttackerScore  int            `json:"attacker_score"`
	DefenderScore  int            `gorm:"index:idx_match_maze_score,priority:2" json:"defender_score"`
	PillsLeft      int            `json:"pills_left"`
	PelletsLeft    int            `json:"pellets_left"`
	Final          datatypes.JSON `json:"final"`
	DurationMs     int64          `json:"duration_ms"`
	Source         string         `gorm:"size:16;not null;default:api" json:"source"`
	CreatedAt      time.Time      `gorm:"index:idx_match_created;autoCreateTime:milli" json:"created_at"`
}
