// Package joypad tracks the P1 register and raises the joypad interrupt on
// button-press edges.
package joypad

import (
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/types"
)

type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// Inputs is one frame's worth of host input: the raw button mask plus
// accelerometer tilt for MBC7 carts (zero = level). It has no rumble or
// motor-target field.
type Inputs struct {
	Buttons Button
	AccelX  int16
	AccelY  int16
}

type State struct {
	irq *interrupts.Service

	selectButtons   bool
	selectDirection bool
	pressed         Button
}

func New(irq *interrupts.Service) *State {
	return &State{irq: irq}
}

// Read returns P1. Bits 4/5 read back 0 when their row is selected; the
// low nibble reads back 0 for each pressed key in a selected row.
func (s *State) Read(addr uint16) uint8 {
	out := uint8(0xCF) // bits 6-7 unused, always high
	if s.selectDirection {
		out &^= 0x10
		out &^= uint8(s.pressed>>4) & 0x0F
	}
	if s.selectButtons {
		out &^= 0x20
		out &^= uint8(s.pressed) & 0x0F
	}
	return out
}

func (s *State) Write(value uint8) {
	s.selectDirection = value&0x10 == 0
	s.selectButtons = value&0x20 == 0
}

// SetInputs applies a frame's button mask, requesting the joypad interrupt
// on any newly-pressed, currently-observed button.
func (s *State) SetInputs(buttons Button) {
	newlyPressed := buttons &^ s.pressed
	s.pressed = buttons
	if newlyPressed == 0 {
		return
	}
	if s.selectButtons && newlyPressed&0x0F != 0 {
		s.irq.Request(interrupts.Joypad)
	}
	if s.selectDirection && newlyPressed&0xF0 != 0 {
		s.irq.Request(interrupts.Joypad)
	}
}

var _ types.Stater = (*State)(nil)

func (s *State) Save(st *types.State) {
	st.WriteBool(s.selectButtons)
	st.WriteBool(s.selectDirection)
	st.Write8(uint8(s.pressed))
}

func (s *State) Load(st *types.State) {
	s.selectButtons = st.ReadBool()
	s.selectDirection = st.ReadBool()
	s.pressed = Button(st.Read8())
}
