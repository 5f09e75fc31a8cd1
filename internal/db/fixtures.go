package db

import (
	"context"
	"fmt"
	"time"
)

// CreateFixturesDatabase creates a test database with realistic sample data
func CreateFixturesDatabase(dbPath string) error {
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	database, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()

	for _, name := range []string{"Work", "Personal", "Errands"} {
		if _, err := database.InsertCategory(ctx, name); err != nil {
			return fmt.Errorf("adding fixture category %s: %w", name, err)
		}
	}

	fixtures := []struct {
		description string
		category    string
		doneDaysAgo int
	}{
		{"Review quarterly roadmap", "Work", 0},
		{"Reply to vendor contract email", "Work", 2},
		{"Prepare slides for Thursday sync", "Work", 0},
		{"Book dentist appointment", "Personal", 0},
		{"Call mom on Sunday", "Personal", 6},
		{"Renew library card", "Personal", 0},
		{"Pick up dry cleaning", "Errands", 1},
		{"Buy printer ink", "Errands", 0},
		{"Drop off recycling", "Errands", 0},
	}

	for _, f := range fixtures {
		id, err := database.InsertTask(ctx, f.description, f.category)
		if err != nil {
			return fmt.Errorf("adding fixture task %q: %w", f.description, err)
		}
		if f.doneDaysAgo > 0 {
			at := time.Now().AddDate(0, 0, -f.doneDaysAgo)
			if _, err := database.MarkCompleted(ctx, id, at); err != nil {
				return fmt.Errorf("completing fixture task %q: %w", f.description, err)
			}
		}
	}

	return nil
}
