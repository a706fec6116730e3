// Package positions reads and edits the positions document.
package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ErrReadOnlySource is returned when editing a document that is produced by a filter
var ErrReadOnlySource = errors.New("positions source is filtered and cannot be edited")

// FileSource implements interfaces.PositionsSource over a JSON file,
// optionally piped through a shell filter (for example a decryption command).
type FileSource struct {
	path   string
	filter string
	logger *common.Logger
}

var (
	_ interfaces.PositionsSource = (*FileSource)(nil)
	_ interfaces.PositionsEditor = (*FileSource)(nil)
)

// NewFileSource creates a source for path; filter may be empty
func NewFileSource(path, filter string, logger *common.Logger) *FileSource {
	return &FileSource{path: path, filter: strings.TrimSpace(filter), logger: logger}
}

// Path returns the document location
func (s *FileSource) Path() string {
	return s.path
}

// ReadOnly reports whether edits are refused
func (s *FileSource) ReadOnly() bool {
	return s.filter != ""
}

// Load reads and decodes the positions, in document order. Only an
// unreadable file or a document that is not a JSON array is an error; an
// entry that fails to decode is returned as a Malformed placeholder.
func (s *FileSource) Load(ctx context.Context) ([]models.Position, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	positions, err := decodePositions(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse positions %s: %w", s.path, err)
	}

	for i, p := range positions {
		if p.Malformed() {
			s.logger.Warn().Str("path", s.path).Int("index", i).Err(p.DecodeErr).Msg("Skipping malformed position")
		}
	}
	s.logger.Debug().Str("path", s.path).Int("positions", len(positions)).Msg("Positions loaded")
	return positions, nil
}

func decodePositions(data []byte) ([]models.Position, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	positions := make([]models.Position, len(entries))
	for i, raw := range entries {
		if err := json.Unmarshal(raw, &positions[i]); err != nil {
			positions[i] = malformed(i, raw, err)
		}
	}
	return positions, nil
}

// malformed keeps whatever Name and Ticker strings the entry has so the
// failure can be shown against the right line.
func malformed(index int, raw json.RawMessage, err error) models.Position {
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	name, _ := fields["Name"].(string)
	ticker, _ := fields["Ticker"].(string)
	if name == "" && ticker == "" {
		name = fmt.Sprintf("position %d", index)
	}
	return models.Position{
		Name:      name,
		Ticker:    ticker,
		DecodeErr: models.NewQuoteError(models.ErrParse, "decode", ticker, err),
	}
}

func (s *FileSource) read(ctx context.Context) ([]byte, error) {
	if s.filter == "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read positions %s: %w", s.path, err)
		}
		return data, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open positions %s: %w", s.path, err)
	}
	defer f.Close()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", s.filter)
	cmd.Stdin = f
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("positions filter failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// SetAmount changes the amount of the position at index
func (s *FileSource) SetAmount(_ context.Context, index int, amount float64) error {
	return s.edit(func(doc *Document) error { return doc.SetAmount(index, amount) })
}

// AddPurchase appends a lot to the position at index
func (s *FileSource) AddPurchase(_ context.Context, index int, lot models.Purchase) error {
	return s.edit(func(doc *Document) error { return doc.AddPurchase(index, lot) })
}

// EditPurchase replaces lot j of the position at index
func (s *FileSource) EditPurchase(_ context.Context, index, j int, lot models.Purchase) error {
	return s.edit(func(doc *Document) error { return doc.EditPurchase(index, j, lot) })
}

// RemovePurchase deletes lot j of the position at index
func (s *FileSource) RemovePurchase(_ context.Context, index, j int) error {
	return s.edit(func(doc *Document) error { return doc.RemovePurchase(index, j) })
}

func (s *FileSource) edit(fn func(*Document) error) error {
	if s.ReadOnly() {
		return ErrReadOnlySource
	}
	doc, err := LoadDocument(s.path)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	s.logger.Info().Str("path", s.path).Msg("Positions document updated")
	return nil
}
