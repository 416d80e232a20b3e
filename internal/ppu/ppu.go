// Package ppu implements the pixel processing unit: a scanline renderer
// that walks LCDC/STAT mode timing one T-cycle at a time, builds each
// visible line from the background, window and sprite layers once Drawing
// ends, and exposes the finished frame as an RGBA buffer.
package ppu

import (
	"image"
	"image/color"

	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/mmu"
	"github.com/kaelindev/pocketcore/internal/types"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	cyclesPerLine  = 456
	oamScanCycles  = 80
	drawingCycles  = 172 // fixed-length approximation of the variable 172-289 window
	linesPerFrame  = 154
)

// DMGPalette selects one of the host-configurable color schemes applied to
// the DMG 2-bit shade indices; CGB output always comes from palette RAM and
// ignores this setting.
type DMGPalette uint8

const (
	PaletteBlackWhite DMGPalette = iota
	PaletteLightGreen
	PaletteIntenseGreen
)

// dmgShades maps each DMGPalette scheme to the RGB triple shown for shade
// indices 0 (lightest) through 3 (darkest).
var dmgShades = map[DMGPalette][4][3]uint8{
	PaletteBlackWhite: {
		{0xFF, 0xFF, 0xFF},
		{0xAA, 0xAA, 0xAA},
		{0x55, 0x55, 0x55},
		{0x00, 0x00, 0x00},
	},
	PaletteLightGreen: {
		{0xE0, 0xF8, 0xD0},
		{0x88, 0xC0, 0x70},
		{0x34, 0x68, 0x56},
		{0x08, 0x18, 0x20},
	},
	PaletteIntenseGreen: {
		{0x9B, 0xBC, 0x0F},
		{0x8B, 0xAC, 0x0F},
		{0x30, 0x62, 0x30},
		{0x0F, 0x38, 0x0F},
	},
}

type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeDrawing
)

type PPU struct {
	bus   *mmu.MMU
	irq   *interrupts.Service
	model types.Model

	lcdc, stat               uint8
	scy, scx                 uint8
	ly, lyc                  uint8
	bgp, obp0, obp1          uint8
	wy, wx                   uint8
	opri                     uint8
	bcps, ocps               uint8
	bgPalette, objPalette    [64]byte

	mode     Mode
	dot      int
	statLine bool

	windowLine    uint8
	windowTrigger bool

	colorCorrect bool
	dmgPalette   DMGPalette

	frame      [ScreenWidth * ScreenHeight * 4]byte
	frameReady bool
}

func New(model types.Model, bus *mmu.MMU, irq *interrupts.Service) *PPU {
	return &PPU{model: model, bus: bus, irq: irq, lcdc: 0x91, stat: 0x85, bgp: 0xFC, obp0: 0xFF, obp1: 0xFF, mode: ModeOAMScan}
}

// SetColorCorrection toggles the optional CGB LCD gamma/color matrix used
// when blitting to a modern display; it has no effect on DMG output.
func (p *PPU) SetColorCorrection(on bool) { p.colorCorrect = on }

// SetPalette selects the DMG shade scheme; it has no effect on CGB output,
// which always reads its colors from palette RAM.
func (p *PPU) SetPalette(pal DMGPalette) { p.dmgPalette = pal }

func (p *PPU) shade(idx uint8) (r, g, b uint8) {
	shades := dmgShades[p.dmgPalette]
	c := shades[idx&0x03]
	return c[0], c[1], c[2]
}

func (p *PPU) Mode() uint8 { return uint8(p.mode) }

func (p *PPU) enabled() bool { return p.lcdc&0x80 != 0 }

func (p *PPU) Tick(cycles int) {
	if !p.enabled() {
		return
	}
	for i := 0; i < cycles; i++ {
		p.tickOne()
	}
}

func (p *PPU) tickOne() {
	p.dot++

	switch p.mode {
	case ModeOAMScan:
		if p.dot >= oamScanCycles {
			p.mode = ModeDrawing
		}
	case ModeDrawing:
		if p.dot >= oamScanCycles+drawingCycles {
			p.renderScanline()
			p.mode = ModeHBlank
			p.bus.OnHBlank()
		}
	}

	if p.dot >= cyclesPerLine {
		p.dot = 0
		p.advanceLine()
	}

	p.refreshStat()
}

func (p *PPU) advanceLine() {
	p.ly++
	if p.ly == ScreenHeight {
		p.mode = ModeVBlank
		p.frameReady = true
		p.irq.Request(interrupts.VBlank)
	} else if p.ly > linesPerFrame-1 {
		p.ly = 0
		p.windowLine = 0
		p.windowTrigger = false
		p.mode = ModeOAMScan
	} else if p.ly < ScreenHeight {
		p.mode = ModeOAMScan
	}

	if p.ly == p.wy {
		p.windowTrigger = true
	}
}

func (p *PPU) refreshStat() {
	lyc := p.ly == p.lyc
	var modeSelected bool
	switch p.mode {
	case ModeHBlank:
		modeSelected = p.stat&0x08 != 0
	case ModeVBlank:
		modeSelected = p.stat&0x10 != 0
	case ModeOAMScan:
		modeSelected = p.stat&0x20 != 0
	}
	lycSelected := p.stat&0x40 != 0 && lyc

	level := modeSelected || lycSelected
	if level && !p.statLine {
		p.irq.Request(interrupts.LCDStat)
	}
	p.statLine = level
}

func (p *PPU) HasFrame() bool { return p.frameReady }

func (p *PPU) Frame() []byte {
	p.frameReady = false
	return p.frame[:]
}

func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr {
	case types.LCDC:
		return p.lcdc
	case types.STAT:
		return p.stat&0x78 | uint8(p.mode) | 0x80 | boolBit(p.ly == p.lyc, 2)
	case types.SCY:
		return p.scy
	case types.SCX:
		return p.scx
	case types.LY:
		return p.ly
	case types.LYC:
		return p.lyc
	case types.BGP:
		return p.bgp
	case types.OBP0:
		return p.obp0
	case types.OBP1:
		return p.obp1
	case types.WY:
		return p.wy
	case types.WX:
		return p.wx
	case types.BCPS:
		return p.bcps | 0x40
	case types.BCPD:
		return p.bgPalette[p.bcps&0x3F]
	case types.OCPS:
		return p.ocps | 0x40
	case types.OCPD:
		return p.objPalette[p.ocps&0x3F]
	case types.OPRI:
		return p.opri | 0xFE
	}
	return 0xFF
}

func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case types.LCDC:
		wasEnabled := p.enabled()
		p.lcdc = value
		if wasEnabled && !p.enabled() {
			p.ly, p.dot = 0, 0
			p.mode = ModeHBlank
		}
	case types.STAT:
		p.stat = value & 0x78
	case types.SCY:
		p.scy = value
	case types.SCX:
		p.scx = value
	case types.LY:
		// read-only
	case types.LYC:
		p.lyc = value
	case types.BGP:
		p.bgp = value
	case types.OBP0:
		p.obp0 = value
	case types.OBP1:
		p.obp1 = value
	case types.WY:
		p.wy = value
	case types.WX:
		p.wx = value
	case types.BCPS:
		p.bcps = value & 0xBF
	case types.BCPD:
		p.bgPalette[p.bcps&0x3F] = value
		if p.bcps&0x80 != 0 {
			p.bcps = 0x80 | ((p.bcps + 1) & 0x3F)
		}
	case types.OCPS:
		p.ocps = value & 0xBF
	case types.OCPD:
		p.objPalette[p.ocps&0x3F] = value
		if p.ocps&0x80 != 0 {
			p.ocps = 0x80 | ((p.ocps + 1) & 0x3F)
		}
	case types.OPRI:
		p.opri = value & 0x01
	}
}

func boolBit(b bool, shift uint8) uint8 {
	if b {
		return 1 << shift
	}
	return 0
}

// DumpTileMap renders the live 32x32 background tile map (the one LCDC bit3
// currently selects) to an RGBA image, for debug tooling.
func (p *PPU) DumpTileMap() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	base := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		base = 0x9C00
	}
	for ty := 0; ty < 32; ty++ {
		for tx := 0; tx < 32; tx++ {
			entry := p.bus.VRAMRead(0, base-0x8000+uint16(ty*32+tx))
			p.blitTile(img, tx*8, ty*8, uint16(entry), 0, false, false, p.bgp)
		}
	}
	return img
}

// DumpTiles renders the raw 384-tile pattern table as a 16x24 grid.
func (p *PPU) DumpTiles() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16*8, 24*8))
	for i := 0; i < 384; i++ {
		p.blitTile(img, (i%16)*8, (i/16)*8, uint16(i), 0, false, false, p.bgp)
	}
	return img
}

func (p *PPU) blitTile(img *image.RGBA, ox, oy int, tile uint16, bank uint8, xflip, yflip bool, palette uint8) {
	addr := tile * 16
	for row := 0; row < 8; row++ {
		r := row
		if yflip {
			r = 7 - row
		}
		lo := p.bus.VRAMRead(bank, addr+uint16(r)*2)
		hi := p.bus.VRAMRead(bank, addr+uint16(r)*2+1)
		for col := 0; col < 8; col++ {
			c := col
			if xflip {
				c = 7 - col
			}
			bit := 7 - c
			colorIdx := (hi>>bit&1)<<1 | (lo >> bit & 1)
			shadeIdx := (palette >> (colorIdx * 2)) & 0x03
			r, g, b := p.shade(shadeIdx)
			img.Set(ox+col, oy+row, color.RGBA{r, g, b, 0xFF})
		}
	}
}

var _ types.Stater = (*PPU)(nil)

func (p *PPU) Save(s *types.State) {
	s.Write8(p.lcdc)
	s.Write8(p.stat)
	s.Write8(p.scy)
	s.Write8(p.scx)
	s.Write8(p.ly)
	s.Write8(p.lyc)
	s.Write8(p.bgp)
	s.Write8(p.obp0)
	s.Write8(p.obp1)
	s.Write8(p.wy)
	s.Write8(p.wx)
	s.Write8(p.opri)
	s.Write8(p.bcps)
	s.Write8(p.ocps)
	s.WriteRaw(p.bgPalette[:])
	s.WriteRaw(p.objPalette[:])
	s.Write8(uint8(p.mode))
	s.Write32(uint32(p.dot))
	s.WriteBool(p.statLine)
	s.Write8(p.windowLine)
	s.WriteBool(p.windowTrigger)
}

func (p *PPU) Load(s *types.State) {
	p.lcdc = s.Read8()
	p.stat = s.Read8()
	p.scy = s.Read8()
	p.scx = s.Read8()
	p.ly = s.Read8()
	p.lyc = s.Read8()
	p.bgp = s.Read8()
	p.obp0 = s.Read8()
	p.obp1 = s.Read8()
	p.wy = s.Read8()
	p.wx = s.Read8()
	p.opri = s.Read8()
	p.bcps = s.Read8()
	p.ocps = s.Read8()
	s.ReadInto(p.bgPalette[:])
	s.ReadInto(p.objPalette[:])
	p.mode = Mode(s.Read8())
	p.dot = int(s.Read32())
	p.statLine = s.ReadBool()
	p.windowLine = s.Read8()
	p.windowTrigger = s.ReadBool()
}
