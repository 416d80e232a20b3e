// Package core is the public boundary between a host program and the
// emulated console: it owns every subsystem, drives them with a
// cooperative tick budget (the CPU reports how many T-cycles an
// instruction took; every other subsystem is advanced by exactly that
// many cycles before the next one executes), and exposes frames, audio,
// and save-state data as plain byte/float slices.
package core

import (
	"time"

	"github.com/kaelindev/pocketcore/internal/apu"
	"github.com/kaelindev/pocketcore/internal/cartridge"
	"github.com/kaelindev/pocketcore/internal/corelog"
	"github.com/kaelindev/pocketcore/internal/cpu"
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/mmu"
	"github.com/kaelindev/pocketcore/internal/ppu"
	"github.com/kaelindev/pocketcore/internal/serial"
	"github.com/kaelindev/pocketcore/internal/timer"
	"github.com/kaelindev/pocketcore/internal/types"
)

// Inputs is one frame's worth of host input.
type Inputs struct {
	Buttons joypad.Button
	AccelX  int16
	AccelY  int16
}

// FrameOutcome is returned from RunFrame/RunUntil once a new video frame
// (or the deadline) is reached.
type FrameOutcome struct {
	Frame      []byte // ScreenWidth*ScreenHeight*4 RGBA bytes
	FrameIndex uint64
	Width      int
	Height     int
}

type Settings struct {
	Model            types.Model
	SampleRate       int
	ColorCorrection  bool
	Palette          ppu.DMGPalette
	Logger           corelog.Logger
}

type Option func(*Settings)

func WithModel(m types.Model) Option           { return func(s *Settings) { s.Model = m } }
func WithSampleRate(rate int) Option           { return func(s *Settings) { s.SampleRate = rate } }
func WithColorCorrection(on bool) Option       { return func(s *Settings) { s.ColorCorrection = on } }
func WithPalette(p ppu.DMGPalette) Option      { return func(s *Settings) { s.Palette = p } }
func WithLogger(l corelog.Logger) Option       { return func(s *Settings) { s.Logger = l } }

func defaultSettings() Settings {
	return Settings{Model: types.ModelCGB, SampleRate: 48000, Palette: ppu.PaletteBlackWhite, Logger: corelog.Nop{}}
}

// Core is one emulated console: a cartridge, and every subsystem wired to
// the shared bus.
type Core struct {
	log corelog.Logger

	mmu    *mmu.MMU
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	timer  *timer.Controller
	joypad *joypad.State
	serial *serial.Controller
	irq    *interrupts.Service
	mapper cartridge.Mapper
	header *cartridge.Header
	model  types.Model

	frameIndex uint64
}

// New parses romBytes, builds the matching mapper, and wires every
// subsystem together. priorSave/priorRTC seed battery RAM and (for MBC3
// carts) the real-time-clock record; pass nil for a fresh cartridge.
func New(romBytes []byte, priorSave, priorRTC []byte, opts ...Option) (*Core, error) {
	settings := defaultSettings()
	for _, o := range opts {
		o(&settings)
	}

	header, err := cartridge.ParseHeader(romBytes)
	if err != nil {
		return nil, err
	}

	model := settings.Model
	if header.GBMode == cartridge.ModeCGBOnly {
		// A CGB-only cartridge never runs in DMG mode, even if the host
		// forced it: spec.md requires the DMG fallback only for carts
		// that are not CGB-only.
		model = types.ModelCGB
	} else if !header.GameboyColor() {
		model = types.ModelDMG
	}

	mapper, err := cartridge.New(romBytes, header, priorSave, priorRTC, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	irq := interrupts.NewService()
	t := timer.New(irq)
	jp := joypad.New(irq)
	sc := serial.New(irq)
	a := apu.New()
	a.SetSampleRate(settings.SampleRate)

	m := mmu.New(model, mapper, irq, t, jp, sc, a)
	p := ppu.New(model, m, irq)
	p.SetColorCorrection(settings.ColorCorrection)
	p.SetPalette(settings.Palette)
	m.PPU = p

	c := cpu.New(m, irq)

	settings.Logger.Infof("loaded %s", header.String())

	return &Core{
		log:    settings.Logger,
		mmu:    m,
		cpu:    c,
		ppu:    p,
		apu:    a,
		timer:  t,
		joypad: jp,
		serial: sc,
		irq:    irq,
		mapper: mapper,
		header: header,
		model:  model,
	}, nil
}

// RunFrame advances the console until exactly one video frame has been
// produced, applying in for the duration.
func (c *Core) RunFrame(in Inputs) FrameOutcome {
	c.joypad.SetInputs(in.Buttons)
	c.mapper.SetAccelerometer(in.AccelX, in.AccelY)

	for !c.ppu.HasFrame() {
		c.stepOne()
	}

	c.frameIndex++
	return FrameOutcome{
		Frame:      c.ppu.Frame(),
		FrameIndex: c.frameIndex,
		Width:      ppu.ScreenWidth,
		Height:     ppu.ScreenHeight,
	}
}

// RunUntil repeatedly runs whole frames, applying in to every one, until
// the wall-clock deadline passes; it returns the last frame produced.
// Used by hosts that pace themselves to a real-time clock rather than a
// fixed frame budget.
func (c *Core) RunUntil(deadline time.Time, in Inputs) FrameOutcome {
	var out FrameOutcome
	for {
		out = c.RunFrame(in)
		if !time.Now().Before(deadline) {
			return out
		}
	}
}

func (c *Core) stepOne() {
	cycles := c.cpu.Step()
	c.timer.Tick(cycles)
	c.serial.Tick(cycles)
	c.apu.Tick(cycles)
	c.ppu.Tick(cycles)
	c.mapper.Tick(cycles)
	c.mmu.Tick(cycles)
}

// DrainAudio copies up to len(into)/2 interleaved stereo frames into into
// and returns the number of frames written.
func (c *Core) DrainAudio(into []float32) int {
	return c.apu.Drain(into)
}

// BatteryRAM returns the cartridge's current battery-backed RAM, or nil if
// the cartridge has none.
func (c *Core) BatteryRAM() []byte { return c.mapper.BatteryRAM() }

// RTCBlob returns the MBC3 real-time-clock record, or nil if the cartridge
// has no RTC.
func (c *Core) RTCBlob() []byte { return c.mapper.RTCBlob() }

// RumbleOutput reports the current rumble motor intensity (0-255).
func (c *Core) RumbleOutput() uint8 { return c.mapper.RumbleIntensity() }

// Header exposes the parsed cartridge header for host UI (title, etc.).
func (c *Core) Header() *cartridge.Header { return c.header }

// Snapshot serializes the complete console state to a single byte slice.
func (c *Core) Snapshot() []byte {
	s := types.NewState()
	s.Write32(types.StateVersion)
	c.cpu.Save(s)
	c.ppu.Save(s)
	c.mmu.Save(s)
	return s.Bytes()
}

// Restore replaces the console's state with a snapshot previously
// produced by Snapshot. It rejects snapshots from an incompatible engine
// version.
func (c *Core) Restore(data []byte) error {
	s := types.StateFromBytes(data)
	if got := s.Read32(); got != types.StateVersion {
		return &types.ErrSnapshotVersion{Got: got, Want: types.StateVersion}
	}
	c.cpu.Load(s)
	c.ppu.Load(s)
	c.mmu.Load(s)
	return nil
}
