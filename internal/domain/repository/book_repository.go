package repository

import (
	"context"

	"github.com/fablestep/fablestep/internal/domain/model/book"
)

// BookRepository provides read access to the loaded gamebook
type BookRepository interface {
	// Title returns the book title
	Title() string

	// StartSection returns the section number a new game begins at
	StartSection() int

	// StartStats returns the initial character stats defined by the book
	StartStats() map[string]int

	// FindSection returns a section by number.
	// Returns a not-found error for unknown sections.
	FindSection(ctx context.Context, number int) (book.Section, error)
}
