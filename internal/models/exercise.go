package models

import (
	"fmt"
	"time"
)

// Difficulty is an ordered exercise difficulty tier
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

// String returns the lowercase name of the difficulty tier
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty converts a tier name to a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty: %q", s)
	}
}

// Exercise represents one activity in the catalog
type Exercise struct {
	ID              int64
	Name            string
	Description     string
	Difficulty      Difficulty
	AdventurePoints int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Prerequisite gates an exercise on prior completions of another exercise.
// The exercise unlocks once the profile has at least MinCount sessions
// against RequiredExerciseID with a quality rating of MinRating or better.
type Prerequisite struct {
	ID                 int64
	ExerciseID         int64
	RequiredExerciseID int64
	MinCount           int
	MinRating          int
}
