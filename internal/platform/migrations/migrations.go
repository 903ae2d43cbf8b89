// Package migrations centralizes the gormigrate versions applied at startup.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: nil db")
	}

	// gormigrate keeps the schema versioned instead of relying on a blanket
	// AutoMigrate in production.
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202608250001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.Event{},
					&domain.VotingType{},
					&domain.PlaceConfig{},
					&domain.DivisionType{},
					&domain.Division{},
					&domain.Participant{},
					&domain.Entry{},
					&domain.VoterWeight{},
					&domain.Vote{},
					&domain.VoteSummary{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"vote_summaries",
					"votes",
					"voter_weights",
					"entries",
					"participants",
					"divisions",
					"division_types",
					"place_configs",
					"voting_types",
					"events",
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: apply: %w", err)
	}

	return nil
}
