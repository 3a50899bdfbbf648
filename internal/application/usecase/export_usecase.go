package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fablestep/fablestep/internal/application/dto"
	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// ExportUseCase renders a game transcript and stores it via the archive
// gateway
type ExportUseCase struct {
	states  repository.StateRepository
	archive output.ArchiveGateway
}

// NewExportUseCase creates the use case
func NewExportUseCase(states repository.StateRepository, archive output.ArchiveGateway) *ExportUseCase {
	return &ExportUseCase{states: states, archive: archive}
}

// Execute renders and archives the transcript of a game
func (uc *ExportUseCase) Execute(ctx context.Context, in dto.ExportInput) (*dto.ExportOutput, error) {
	id, err := game.ParseID(in.GameID)
	if err != nil {
		return nil, step.NewValidationError("invalid game ID: %v", err)
	}

	state, err := uc.states.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	content := RenderTranscript(state)
	meta, err := uc.archive.SaveTranscript(ctx, output.SaveTranscriptRequest{
		GameID:  state.ID().String(),
		Version: state.Version(),
		Content: []byte(content),
	})
	if err != nil {
		return nil, step.NewRecordError("archive transcript", err)
	}

	return &dto.ExportOutput{StoragePath: meta.StoragePath, Size: meta.Size}, nil
}

// RenderTranscript renders a plain-text transcript of a game: the header,
// the trace history in order, and the latest narrative
func RenderTranscript(state *game.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game %s\n", state.ID())
	fmt.Fprintf(&b, "Version %d, section %d\n", state.Version(), state.SectionNumber())

	stats := state.Stats()
	names := stats.Names()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, _ := stats.Value(name)
		m, _ := stats.Maximum(name)
		parts = append(parts, fmt.Sprintf("%s %d/%d", name, v, m))
	}
	fmt.Fprintf(&b, "Stats: %s\n", strings.Join(parts, ", "))

	if items := state.Inventory().Items(); len(items) > 0 {
		fmt.Fprintf(&b, "Inventory: %s\n", strings.Join(items, ", "))
	}

	b.WriteString("\n-- History --\n")
	for i, entry := range state.History() {
		fmt.Fprintf(&b, "%3d. [%s] section %d (from v%d)",
			i+1, entry.Kind(), entry.SectionNumber(), entry.PreviousVersion())

		payload := entry.Payload()
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, payload[k])
		}
		b.WriteString("\n")
	}

	if narrative := state.Narrative(); narrative != "" {
		b.WriteString("\n-- Narrative --\n")
		b.WriteString(narrative)
		b.WriteString("\n")
	}

	return b.String()
}
