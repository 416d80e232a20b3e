package mmu

import "github.com/kaelindev/pocketcore/internal/types"

// dmaEngine implements OAM DMA (FF46): a 160-byte copy from source<<8 to
// OAM, one byte every 4 T-cycles, during which the CPU's bus reads return
// 0xFF for everything but HRAM.
type dmaEngine struct {
	active bool
	source uint16
	index  int
	acc    int
}

func (d *dmaEngine) start(m *MMU, value uint8) {
	d.active = true
	d.source = uint16(value) << 8
	d.index = 0
	d.acc = 0
}

func (d *dmaEngine) tick(m *MMU, cycles int) {
	if !d.active {
		return
	}
	d.acc += cycles
	for d.acc >= 4 && d.active {
		d.acc -= 4
		m.oam[d.index] = m.readRaw(d.source + uint16(d.index))
		d.index++
		if d.index >= 0xA0 {
			d.active = false
		}
	}
}

func (d *dmaEngine) save(s *types.State) {
	s.WriteBool(d.active)
	s.Write16(d.source)
	s.Write32(uint32(d.index))
	s.Write32(uint32(d.acc))
}

func (d *dmaEngine) load(s *types.State) {
	d.active = s.ReadBool()
	d.source = s.Read16()
	d.index = int(s.Read32())
	d.acc = int(s.Read32())
}
