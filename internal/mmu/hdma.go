package mmu

import "github.com/kaelindev/pocketcore/internal/types"

// hdmaEngine implements the CGB VRAM DMA registers (FF51-FF55): a
// general-purpose blocking copy (GDMA) or a 16-bytes-per-HBlank copy (HDMA).
type hdmaEngine struct {
	srcHi, srcLo uint8
	dstHi, dstLo uint8

	hdmaPending bool
	gdmaPending bool // set transiently while a blocking GDMA is applied
	blocksLeft  uint8
}

func (h *hdmaEngine) source() uint16 {
	return uint16(h.srcHi)<<8 | uint16(h.srcLo&0xF0)
}

func (h *hdmaEngine) dest() uint16 {
	return 0x8000 | uint16(h.dstHi&0x1F)<<8 | uint16(h.dstLo&0xF0)
}

func (h *hdmaEngine) read(addr uint16) uint8 {
	if addr != types.HDMA5 {
		return 0xFF
	}
	if !h.hdmaPending {
		return 0xFF
	}
	return h.blocksLeft
}

func (h *hdmaEngine) write(m *MMU, addr uint16, value uint8) {
	switch addr {
	case types.HDMA1:
		h.srcHi = value
	case types.HDMA2:
		h.srcLo = value
	case types.HDMA3:
		h.dstHi = value
	case types.HDMA4:
		h.dstLo = value
	case types.HDMA5:
		if h.hdmaPending && value&0x80 == 0 {
			// writing bit7=0 while an HDMA is active cancels it.
			h.hdmaPending = false
			return
		}
		blocks := (value & 0x7F) + 1
		if value&0x80 == 0 {
			h.runGDMA(m, blocks)
		} else {
			h.hdmaPending = true
			h.blocksLeft = value & 0x7F
		}
	}
}

func (h *hdmaEngine) runGDMA(m *MMU, blocks uint8) {
	h.gdmaPending = true
	src, dst := h.source(), h.dest()
	for i := uint16(0); i < uint16(blocks)*16; i++ {
		m.vram[m.vbk][(dst+i)&0x1FFF] = m.readRaw(src + i)
	}
	h.srcLo += byte(blocks * 16)
	h.dstLo += byte(blocks * 16)
	h.gdmaPending = false
}

func (h *hdmaEngine) onHBlank(m *MMU) {
	if !h.hdmaPending {
		return
	}
	src, dst := h.source(), h.dest()
	for i := uint16(0); i < 16; i++ {
		m.vram[m.vbk][(dst+i)&0x1FFF] = m.readRaw(src + i)
	}
	h.srcLo += 16
	if h.srcLo == 0 {
		h.srcHi++
	}
	h.dstLo += 16
	if h.blocksLeft == 0 {
		h.hdmaPending = false
		return
	}
	h.blocksLeft--
}

func (h *hdmaEngine) save(s *types.State) {
	s.Write8(h.srcHi)
	s.Write8(h.srcLo)
	s.Write8(h.dstHi)
	s.Write8(h.dstLo)
	s.WriteBool(h.hdmaPending)
	s.Write8(h.blocksLeft)
}

func (h *hdmaEngine) load(s *types.State) {
	h.srcHi = s.Read8()
	h.srcLo = s.Read8()
	h.dstHi = s.Read8()
	h.dstLo = s.Read8()
	h.hdmaPending = s.ReadBool()
	h.blocksLeft = s.Read8()
}
