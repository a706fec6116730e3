package positions

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/PaesslerAG/jsonpath"

	"github.com/bobmcallan/folio/internal/models"
)

// Document is the positions file held as a generic JSON tree so that
// fields this program does not know about survive an edit.
type Document struct {
	path string
	root []any
}

// LoadDocument reads the document at path
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions %s: %w", path, err)
	}
	var root []any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse positions %s: %w", path, err)
	}
	return &Document{path: path, root: root}, nil
}

// Len returns the number of positions
func (d *Document) Len() int {
	return len(d.root)
}

func (d *Document) position(index int) (map[string]any, error) {
	v, err := jsonpath.Get(fmt.Sprintf("$[%d]", index), d.root)
	if err != nil || index < 0 || index >= len(d.root) {
		return nil, fmt.Errorf("position %d not found", index)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("position %d is not an object", index)
	}
	return obj, nil
}

func (d *Document) purchases(index int) (map[string]any, []any, error) {
	obj, err := d.position(index)
	if err != nil {
		return nil, nil, err
	}
	v, err := jsonpath.Get(fmt.Sprintf("$[%d].Purchases", index), d.root)
	if err != nil || v == nil {
		return obj, nil, nil
	}
	lots, ok := v.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("position %d: Purchases is not a list", index)
	}
	return obj, lots, nil
}

// SetAmount sets Amount on a position without purchase lots
func (d *Document) SetAmount(index int, amount float64) error {
	obj, lots, err := d.purchases(index)
	if err != nil {
		return err
	}
	if len(lots) > 0 {
		return fmt.Errorf("position %d: amount is derived from its purchases", index)
	}
	if !finite(amount) {
		return fmt.Errorf("position %d: amount %v is not a finite number", index, amount)
	}
	obj["Amount"] = amount
	return nil
}

// AddPurchase appends a lot and updates Amount to the new lot total
func (d *Document) AddPurchase(index int, lot models.Purchase) error {
	if err := checkLot(lot); err != nil {
		return fmt.Errorf("position %d: %w", index, err)
	}
	obj, lots, err := d.purchases(index)
	if err != nil {
		return err
	}
	lots = append(lots, lotObject(nil, lot))
	obj["Purchases"] = lots
	obj["Amount"] = lotTotal(lots)
	return nil
}

// EditPurchase replaces the known fields of lot j, keeping any others
func (d *Document) EditPurchase(index, j int, lot models.Purchase) error {
	if err := checkLot(lot); err != nil {
		return fmt.Errorf("position %d: %w", index, err)
	}
	obj, lots, err := d.purchases(index)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(lots) {
		return fmt.Errorf("position %d: purchase %d not found", index, j)
	}
	existing, _ := lots[j].(map[string]any)
	lots[j] = lotObject(existing, lot)
	obj["Amount"] = lotTotal(lots)
	return nil
}

// RemovePurchase deletes lot j
func (d *Document) RemovePurchase(index, j int) error {
	obj, lots, err := d.purchases(index)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(lots) {
		return fmt.Errorf("position %d: purchase %d not found", index, j)
	}
	lots = append(lots[:j], lots[j+1:]...)
	obj["Purchases"] = lots
	obj["Amount"] = lotTotal(lots)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkLot(lot models.Purchase) error {
	if !finite(lot.Quantity) ||
		(lot.Price != nil && !finite(*lot.Price)) ||
		(lot.Fees != nil && !finite(*lot.Fees)) {
		return fmt.Errorf("purchase has a non-finite number")
	}
	return nil
}

// Save writes the document back atomically
func (d *Document) Save() error {
	data, err := json.MarshalIndent(d.root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".positions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write positions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("failed to replace positions %s: %w", d.path, err)
	}
	return nil
}

func lotObject(base map[string]any, lot models.Purchase) map[string]any {
	obj := make(map[string]any, len(base)+4)
	for k, v := range base {
		obj[k] = v
	}
	obj["Quantity"] = lot.Quantity
	if lot.Date != "" {
		obj["Date"] = lot.Date
	} else {
		delete(obj, "Date")
	}
	if lot.Price != nil {
		obj["Price"] = *lot.Price
	} else {
		delete(obj, "Price")
	}
	if lot.Fees != nil {
		obj["Fees"] = *lot.Fees
	} else {
		delete(obj, "Fees")
	}
	return obj
}

func lotTotal(lots []any) float64 {
	var total float64
	for _, l := range lots {
		obj, ok := l.(map[string]any)
		if !ok {
			continue
		}
		if q, ok := obj["Quantity"].(float64); ok {
			total += q
		}
	}
	return total
}
