// Package book loads the gamebook from a YAML file into memory.
package book

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	bookmodel "github.com/fablestep/fablestep/internal/domain/model/book"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// fileBook mirrors the on-disk book layout
type fileBook struct {
	Title        string         `yaml:"title"`
	StartSection int            `yaml:"start_section"`
	Stats        map[string]int `yaml:"stats"`
	Sections     []fileSection  `yaml:"sections"`
}

type fileSection struct {
	Number  int       `yaml:"number"`
	Title   string    `yaml:"title"`
	Content string    `yaml:"content"`
	Ending  bool      `yaml:"ending"`
	Rule    *fileRule `yaml:"rule"`
}

type fileRule struct {
	NeedsDice    bool         `yaml:"needs_dice"`
	DiceKind     string       `yaml:"dice_kind"`
	DiceModifier int          `yaml:"dice_modifier"`
	Threshold    int          `yaml:"threshold"`
	Conditions   []string     `yaml:"conditions"`
	Targets      []fileTarget `yaml:"targets"`
}

type fileTarget struct {
	Section int    `yaml:"section"`
	Label   string `yaml:"label"`
}

// FileBookRepository serves sections from a YAML book loaded at startup.
// The whole book is validated on load; lookups never touch the disk.
type FileBookRepository struct {
	title        string
	startSection int
	startStats   map[string]int
	sections     map[int]bookmodel.Section
}

var _ repository.BookRepository = (*FileBookRepository)(nil)

// NewFileBookRepository loads and validates a book from the filesystem
func NewFileBookRepository(fs afero.Fs, path string) (*FileBookRepository, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read book file: %w", err)
	}

	var fb fileBook
	if err := yaml.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("parse book file %s: %w", path, err)
	}

	if fb.Title == "" {
		return nil, fmt.Errorf("book has no title")
	}
	if len(fb.Sections) == 0 {
		return nil, fmt.Errorf("book has no sections")
	}
	if fb.StartSection == 0 {
		fb.StartSection = fb.Sections[0].Number
	}
	if len(fb.Stats) == 0 {
		return nil, fmt.Errorf("book defines no starting stats")
	}

	sections := make(map[int]bookmodel.Section, len(fb.Sections))
	for _, fsec := range fb.Sections {
		section := toSection(fsec)
		if err := section.Validate(); err != nil {
			return nil, fmt.Errorf("invalid book: %w", err)
		}
		if _, dup := sections[section.Number]; dup {
			return nil, fmt.Errorf("invalid book: duplicate section %d", section.Number)
		}
		sections[section.Number] = section
	}

	if _, ok := sections[fb.StartSection]; !ok {
		return nil, fmt.Errorf("invalid book: start section %d not found", fb.StartSection)
	}

	// Every target must point at an existing section
	for _, section := range sections {
		for _, target := range section.Rule.Targets {
			if _, ok := sections[target.Section]; !ok {
				return nil, fmt.Errorf("invalid book: section %d targets missing section %d",
					section.Number, target.Section)
			}
		}
	}

	return &FileBookRepository{
		title:        fb.Title,
		startSection: fb.StartSection,
		startStats:   fb.Stats,
		sections:     sections,
	}, nil
}

func toSection(fs fileSection) bookmodel.Section {
	section := bookmodel.Section{
		Number:  fs.Number,
		Title:   fs.Title,
		Content: fs.Content,
		Ending:  fs.Ending,
	}
	if fs.Rule != nil {
		targets := make([]bookmodel.Target, 0, len(fs.Rule.Targets))
		for _, t := range fs.Rule.Targets {
			targets = append(targets, bookmodel.Target{Section: t.Section, Label: t.Label})
		}
		section.Rule = bookmodel.RuleTable{
			NeedsDice:    fs.Rule.NeedsDice,
			DiceKind:     fs.Rule.DiceKind,
			DiceModifier: fs.Rule.DiceModifier,
			Threshold:    fs.Rule.Threshold,
			Conditions:   fs.Rule.Conditions,
			Targets:      targets,
		}
	}
	return section
}

// Title returns the book title
func (r *FileBookRepository) Title() string {
	return r.title
}

// StartSection returns the section a new game begins at
func (r *FileBookRepository) StartSection() int {
	return r.startSection
}

// StartStats returns a copy of the book's starting stats
func (r *FileBookRepository) StartStats() map[string]int {
	out := make(map[string]int, len(r.startStats))
	for k, v := range r.startStats {
		out[k] = v
	}
	return out
}

// FindSection returns a section by number
func (r *FileBookRepository) FindSection(ctx context.Context, number int) (bookmodel.Section, error) {
	section, ok := r.sections[number]
	if !ok {
		return bookmodel.Section{}, step.NewNotFoundError("section %d not found", number)
	}
	return section, nil
}
