package workorder

import (
	"errors"
	"fmt"
)

var ErrUnknownOp = errors.New("unknown draft operation")

// Draft operation names.
const (
	OpSetField       = "setField"
	OpAddItem        = "addItem"
	OpUpdateItem     = "updateItem"
	OpRemoveItem     = "removeItem"
	OpAddMaterial    = "addMaterial"
	OpUpdateMaterial = "updateMaterial"
	OpRemoveMaterial = "removeMaterial"
)

// Op is one edit sent by a form client. Which fields matter depends on Op:
// setField uses Path and Value, item ops use Section, ID and Text, material
// ops use ID or Material.
type Op struct {
	Op       string    `json:"op"`
	Path     string    `json:"path,omitempty"`
	Value    string    `json:"value,omitempty"`
	Section  Section   `json:"section,omitempty"`
	ID       string    `json:"id,omitempty"`
	Text     string    `json:"text,omitempty"`
	Material *Material `json:"material,omitempty"`
}

// Apply runs ops in order and stops at the first failure. Ops applied before
// the failure stay applied.
func (d *Draft) Apply(ops ...Op) error {
	for i, op := range ops {
		if err := d.apply(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func (d *Draft) apply(op Op) error {
	switch op.Op {
	case OpSetField:
		return d.SetField(op.Path, op.Value)
	case OpAddItem:
		it, err := d.AddItem(op.Section)
		if err != nil || op.Text == "" {
			return err
		}
		return d.UpdateItem(op.Section, it.ID, op.Text)
	case OpUpdateItem:
		return d.UpdateItem(op.Section, op.ID, op.Text)
	case OpRemoveItem:
		return d.RemoveItem(op.Section, op.ID)
	case OpAddMaterial:
		m := d.AddMaterial()
		if op.Material == nil {
			return nil
		}
		row := *op.Material
		row.ID = m.ID
		return d.UpdateMaterial(row)
	case OpUpdateMaterial:
		if op.Material == nil {
			return fmt.Errorf("%w: material is required", ErrInvalidValue)
		}
		return d.UpdateMaterial(*op.Material)
	case OpRemoveMaterial:
		return d.RemoveMaterial(op.ID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
}
