package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the match table and checks that the
// leaderboard index is in place.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MatchRecord{}); err != nil {
		return err
	}
	if !db.Migrator().HasIndex(&MatchRecord{}, "idx_match_maze_score") {
		return fmt.Errorf("model: leaderboard index idx_match_maze_score missing")
	}
	return nil
}
