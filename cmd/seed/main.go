package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"fitquest/internal/config"
	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
	"fitquest/internal/service"
)

// seedFile is the JSON shape of a catalog seed file
type seedFile struct {
	Exercises []seedExercise `json:"exercises"`
	Paths     []seedPath     `json:"paths"`
}

type seedExercise struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Difficulty      string             `json:"difficulty"`
	AdventurePoints int                `json:"adventure_points"`
	Prerequisites   []seedPrerequisite `json:"prerequisites"`
}

type seedPrerequisite struct {
	Required  string `json:"required"`
	MinCount  int    `json:"min_count"`
	MinRating int    `json:"min_rating"`
}

type seedPath struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Exercises   []seedPathEntry `json:"exercises"`
}

type seedPathEntry struct {
	Name       string `json:"name"`
	Position   int    `json:"position"`
	WeekNumber int    `json:"week_number"`
}

func main() {
	seedPath := flag.String("file", "./seed/catalog.json", "path to the catalog seed file")
	flag.Parse()

	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	exerciseRepo := repository.NewExerciseRepository(db)
	adventureRepo := repository.NewAdventureRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	catalogService := service.NewCatalogService(exerciseRepo, sessionRepo)
	adventureService := service.NewAdventureService(db, adventureRepo, exerciseRepo)

	if err := loadCatalog(catalogService, adventureService, exerciseRepo, adventureRepo, seed); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	log.Println("Catalog seeded successfully")
}

// loadCatalog creates missing exercises, prerequisite edges and paths from
// the seed file. Existing rows are matched by name and left alone, so the
// loader can run repeatedly against the same database. Prerequisite edges go
// through the catalog service so the acyclicity check applies to seed data
// the same as to API writes.
func loadCatalog(catalog *service.CatalogService, adventure *service.AdventureService, exerciseRepo *repository.ExerciseRepository, adventureRepo *repository.AdventureRepository, seed seedFile) error {
	existing, err := exerciseRepo.List()
	if err != nil {
		return fmt.Errorf("failed to list exercises: %w", err)
	}
	byName := make(map[string]*models.Exercise, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	for _, entry := range seed.Exercises {
		if _, ok := byName[entry.Name]; ok {
			continue
		}
		difficulty, err := models.ParseDifficulty(entry.Difficulty)
		if err != nil {
			return fmt.Errorf("exercise %q: %w", entry.Name, err)
		}
		exercise, err := catalog.CreateExercise(entry.Name, entry.Description, difficulty, entry.AdventurePoints)
		if err != nil {
			return fmt.Errorf("exercise %q: %w", entry.Name, err)
		}
		byName[entry.Name] = exercise
		log.Printf("Created exercise %q (id=%d)", exercise.Name, exercise.ID)
	}

	for _, entry := range seed.Exercises {
		exercise := byName[entry.Name]
		current, err := exerciseRepo.GetPrerequisites(exercise.ID)
		if err != nil {
			return fmt.Errorf("exercise %q: %w", entry.Name, err)
		}
		have := make(map[int64]bool, len(current))
		for _, p := range current {
			have[p.RequiredExerciseID] = true
		}

		for _, prereq := range entry.Prerequisites {
			required, ok := byName[prereq.Required]
			if !ok {
				return fmt.Errorf("exercise %q requires unknown exercise %q", entry.Name, prereq.Required)
			}
			if have[required.ID] {
				continue
			}
			if _, err := catalog.AddPrerequisite(exercise.ID, required.ID, prereq.MinCount, prereq.MinRating); err != nil {
				return fmt.Errorf("prerequisite %q -> %q: %w", entry.Name, prereq.Required, err)
			}
			log.Printf("Added prerequisite %q -> %q", entry.Name, prereq.Required)
		}
	}

	paths, err := adventureRepo.ListPaths()
	if err != nil {
		return fmt.Errorf("failed to list paths: %w", err)
	}
	pathByName := make(map[string]*models.AdventurePath, len(paths))
	for i := range paths {
		pathByName[paths[i].Name] = &paths[i]
	}

	for _, entry := range seed.Paths {
		path, ok := pathByName[entry.Name]
		if !ok {
			path, err = adventure.CreatePath(entry.Name, entry.Description)
			if err != nil {
				return fmt.Errorf("path %q: %w", entry.Name, err)
			}
			log.Printf("Created path %q (id=%d)", path.Name, path.ID)
		}

		members, err := adventureRepo.ListPathExercises(path.ID)
		if err != nil {
			return fmt.Errorf("path %q: %w", entry.Name, err)
		}
		inPath := make(map[int64]bool, len(members))
		for _, m := range members {
			inPath[m.ExerciseID] = true
		}

		for _, member := range entry.Exercises {
			exercise, ok := byName[member.Name]
			if !ok {
				return fmt.Errorf("path %q references unknown exercise %q", entry.Name, member.Name)
			}
			if inPath[exercise.ID] {
				continue
			}
			if _, err := adventure.AddExercise(path.ID, exercise.ID, member.Position, member.WeekNumber); err != nil {
				return fmt.Errorf("path %q exercise %q: %w", entry.Name, member.Name, err)
			}
			log.Printf("Added %q to path %q at position %d", member.Name, entry.Name, member.Position)
		}
	}

	return nil
}
