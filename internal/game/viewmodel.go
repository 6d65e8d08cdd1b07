package game

import "github.com/golang/geo/r3"

// ViewModel is the first-person model of a weapon, shown only to its owner.
type ViewModel struct {
	baseEntity
	weapon *Weapon
	model  string
}

func newViewModel(w *World, weapon *Weapon, model string) *ViewModel {
	vm := &ViewModel{
		baseEntity: newBaseEntity(w, "viewmodel"),
		weapon:     weapon,
		model:      model,
	}
	w.add(vm)
	return vm
}

// Position follows the weapon's owner's eyes.
func (vm *ViewModel) Position() r3.Vector {
	if o := vm.weapon.Owner(); o != nil {
		return o.EyePosition()
	}
	return vm.weapon.Position()
}

func (vm *ViewModel) Model() string   { return vm.model }
func (vm *ViewModel) Weapon() *Weapon { return vm.weapon }
