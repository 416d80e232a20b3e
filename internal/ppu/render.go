package ppu

import (
	"sort"

	"github.com/kaelindev/pocketcore/internal/types"
)

type spritePixel struct {
	colorIdx uint8
	palette  uint8
	priority bool // true = behind non-zero background pixel
	cgbAttr  uint8
	present  bool
}

func (p *PPU) renderScanline() {
	if p.ly >= ScreenHeight {
		return
	}

	var bgPixels [ScreenWidth]uint8
	var bgAttrs [ScreenWidth]uint8

	if p.lcdc&0x01 != 0 || p.model == types.ModelCGB {
		p.renderBackgroundLine(&bgPixels, &bgAttrs)
	}
	windowDrawn := false
	if p.lcdc&0x20 != 0 && p.windowTrigger && p.wx <= 166 {
		windowDrawn = p.renderWindowLine(&bgPixels, &bgAttrs)
	}

	var sprites [ScreenWidth]spritePixel
	if p.lcdc&0x02 != 0 {
		p.renderSpritesLine(&sprites)
	}

	for x := 0; x < ScreenWidth; x++ {
		r, g, b := p.composePixel(bgPixels[x], bgAttrs[x], sprites[x])
		off := (int(p.ly)*ScreenWidth + x) * 4
		p.frame[off] = r
		p.frame[off+1] = g
		p.frame[off+2] = b
		p.frame[off+3] = 0xFF
	}

	if windowDrawn {
		p.windowLine++
	}
}

func (p *PPU) renderBackgroundLine(pixels, attrs *[ScreenWidth]uint8) {
	mapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}
	y := uint16(p.scy) + uint16(p.ly)
	tileRow := (y / 8) % 32
	fineY := uint8(y % 8)

	for x := 0; x < ScreenWidth; x++ {
		sx := uint16(p.scx) + uint16(x)
		tileCol := (sx / 8) % 32
		fineX := uint8(sx % 8)

		mapOff := tileRow*32 + tileCol
		tile := p.bus.VRAMRead(0, mapBase-0x8000+mapOff)
		attr := uint8(0)
		if p.model == types.ModelCGB {
			attr = p.bus.VRAMRead(1, mapBase-0x8000+mapOff)
		}
		pixels[x], _ = p.tilePixel(tile, attr, fineX, fineY)
		attrs[x] = attr
	}
}

func (p *PPU) renderWindowLine(pixels, attrs *[ScreenWidth]uint8) bool {
	mapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}
	wx := int(p.wx) - 7
	if wx >= ScreenWidth {
		return false
	}
	tileRow := uint16(p.windowLine/8) % 32
	fineY := p.windowLine % 8
	drawn := false

	for x := 0; x < ScreenWidth; x++ {
		if x < wx {
			continue
		}
		drawn = true
		col := uint16(x-wx) / 8 % 32
		fineX := uint8((x - wx) % 8)

		mapOff := tileRow*32 + col
		tile := p.bus.VRAMRead(0, mapBase-0x8000+mapOff)
		attr := uint8(0)
		if p.model == types.ModelCGB {
			attr = p.bus.VRAMRead(1, mapBase-0x8000+mapOff)
		}
		pixels[x], _ = p.tilePixel(tile, attr, fineX, fineY)
		attrs[x] = attr
	}
	return drawn
}

// tilePixel returns the 2-bit color index for one pixel of a background or
// window tile, honoring the CGB attribute byte's bank/flip bits and the
// signed tile-data addressing mode selected by LCDC bit4.
func (p *PPU) tilePixel(tile uint8, attr uint8, fineX, fineY uint8) (uint8, uint8) {
	bank := uint8(0)
	xflip := false
	yflip := false
	if attr != 0 {
		bank = (attr >> 3) & 1
		xflip = attr&0x20 != 0
		yflip = attr&0x40 != 0
	}

	var base uint16
	if p.lcdc&0x10 != 0 {
		base = uint16(tile) * 16
	} else {
		base = uint16(0x1000 + int16(int8(tile))*16)
	}

	row := fineY
	if yflip {
		row = 7 - row
	}
	col := fineX
	if xflip {
		col = 7 - col
	}

	lo := p.bus.VRAMRead(bank, base+uint16(row)*2)
	hi := p.bus.VRAMRead(bank, base+uint16(row)*2+1)
	bit := 7 - col
	return (hi>>bit&1)<<1 | (lo >> bit & 1), attr
}

func (p *PPU) renderSpritesLine(out *[ScreenWidth]spritePixel) {
	tall := p.lcdc&0x04 != 0
	height := 8
	if tall {
		height = 16
	}

	type entry struct {
		x, y     int
		tile     uint8
		attr     uint8
		oamIndex int
	}
	var candidates []entry
	for i := 0; i < 40 && len(candidates) < 10; i++ {
		base := uint8(i * 4)
		y := int(p.bus.OAMRead(base)) - 16
		if int(p.ly) < y || int(p.ly) >= y+height {
			continue
		}
		x := int(p.bus.OAMRead(base+1)) - 8
		tile := p.bus.OAMRead(base + 2)
		attr := p.bus.OAMRead(base + 3)
		candidates = append(candidates, entry{x, y, tile, attr, i})
	}
	if p.model != types.ModelCGB {
		// DMG: the smaller X wins an overlap; the stable sort keeps OAM
		// order as the tiebreak.
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].x < candidates[j].x })
	}

	for _, e := range candidates {
		row := int(p.ly) - e.y
		if e.attr&0x40 != 0 {
			row = height - 1 - row
		}
		tile := e.tile
		if tall {
			tile &^= 1
			if row >= 8 {
				tile |= 1
				row -= 8
			}
		}
		bank := uint8(0)
		if p.model == types.ModelCGB {
			bank = (e.attr >> 3) & 1
		}
		base := uint16(tile) * 16
		lo := p.bus.VRAMRead(bank, base+uint16(row)*2)
		hi := p.bus.VRAMRead(bank, base+uint16(row)*2+1)

		for col := 0; col < 8; col++ {
			sx := e.x + col
			if sx < 0 || sx >= ScreenWidth {
				continue
			}
			c := col
			if e.attr&0x20 != 0 {
				c = 7 - col
			}
			bit := 7 - c
			colorIdx := (hi>>bit&1)<<1 | (lo >> bit & 1)
			if colorIdx == 0 {
				continue
			}
			if out[sx].present {
				// the first opaque pixel placed wins: candidates are in
				// OAM order on CGB, X-then-OAM order on DMG.
				continue
			}
			out[sx] = spritePixel{
				colorIdx: colorIdx,
				palette:  (e.attr >> 4) & 1,
				priority: e.attr&0x80 != 0,
				cgbAttr:  e.attr,
				present:  true,
			}
		}
	}
}

func (p *PPU) composePixel(bgIdx uint8, bgAttr uint8, sp spritePixel) (r, g, b uint8) {
	bgPriorityOverSprite := bgAttr&0x80 != 0 && p.model == types.ModelCGB

	useSprite := sp.present
	if useSprite && bgIdx != 0 {
		if sp.priority || bgPriorityOverSprite {
			useSprite = false
		}
	}

	if useSprite {
		if p.model == types.ModelCGB {
			return p.cgbColor(p.objPalette, sp.cgbAttr&0x07, sp.colorIdx)
		}
		palette := p.obp0
		if sp.palette == 1 {
			palette = p.obp1
		}
		return p.shade((palette >> (sp.colorIdx * 2)) & 0x03)
	}

	if p.model == types.ModelCGB {
		return p.cgbColor(p.bgPalette, bgAttr&0x07, bgIdx)
	}
	return p.shade((p.bgp >> (bgIdx * 2)) & 0x03)
}

func (p *PPU) cgbColor(palette [64]byte, paletteIdx uint8, colorIdx uint8) (r, g, b uint8) {
	off := int(paletteIdx)*8 + int(colorIdx)*2
	lo := palette[off]
	hi := palette[off+1]
	word := uint16(lo) | uint16(hi)<<8
	r5 := uint8(word & 0x1F)
	g5 := uint8((word >> 5) & 0x1F)
	b5 := uint8((word >> 10) & 0x1F)
	r, g, b = scale5to8(r5), scale5to8(g5), scale5to8(b5)
	if p.colorCorrect {
		r, g, b = correctColor(r, g, b)
	}
	return
}

func scale5to8(v uint8) uint8 {
	return (v<<3 | v>>2)
}

// correctColor approximates the widely used "same as boyadvance/mGBA"
// color-correction curve so CGB games look closer to how they did on an
// actual LCD instead of raw linear RGB555 scaling.
func correctColor(r, g, b uint8) (uint8, uint8, uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	nr := (rf*0.82 + gf*0.175 + bf*0.02)
	ng := (rf*0.025 + gf*0.775 + bf*0.155)
	nb := (rf*0.125 + gf*0.125 + bf*0.73)
	return clamp255(nr), clamp255(ng), clamp255(nb)
}

func clamp255(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
