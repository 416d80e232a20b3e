// Package apu implements the Game Boy's four-channel audio processing unit:
// two square channels (one with frequency sweep), a programmable wave
// channel, and a noise channel, mixed through NR50/NR51 into a stereo
// signal and resampled to whatever rate the host asked for.
package apu

import (
	"github.com/kaelindev/pocketcore/internal/types"
)

const (
	gbClockHz            = 4194304
	frameSequencerHz      = 512
	frameSequencerPeriod  = gbClockHz / frameSequencerHz
	defaultSampleRate     = 48000
	sampleBufferCapacity  = 1 << 14 // stereo frames
)

type APU struct {
	enabled bool

	ch1 squareChannel
	ch2 squareChannel
	ch3 waveChannel
	ch4 noiseChannel

	frameSeqCounter int
	frameSeqStep    uint8

	vinLeft, vinRight       bool
	volumeLeft, volumeRight uint8
	leftEnable, rightEnable [4]bool

	sampleRate   int
	resampleAcc  int64

	buffer []float32 // interleaved L,R
	head   int
	count  int
}

func New() *APU {
	a := &APU{sampleRate: defaultSampleRate, buffer: make([]float32, sampleBufferCapacity*2)}
	a.ch1.hasSweep = true
	return a
}

// SetSampleRate changes the host output rate used by the downsampling
// accumulator; safe to call between frames.
func (a *APU) SetSampleRate(rate int) {
	if rate <= 0 {
		rate = defaultSampleRate
	}
	a.sampleRate = rate
}

func (a *APU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		a.tickOne()
	}
}

func (a *APU) tickOne() {
	if a.enabled {
		a.ch1.step()
		a.ch2.step()
		a.ch3.step()
		a.ch4.step()

		a.frameSeqCounter--
		if a.frameSeqCounter <= 0 {
			a.frameSeqCounter = frameSequencerPeriod
			a.stepFrameSequencer()
		}
	}

	a.resampleAcc += int64(a.sampleRate)
	if a.resampleAcc >= gbClockHz {
		a.resampleAcc -= gbClockHz
		a.emitSample()
	}
}

func (a *APU) stepFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 4:
		a.ch1.lengthStep()
		a.ch2.lengthStep()
		a.ch3.lengthStep()
		a.ch4.lengthStep()
	case 2, 6:
		a.ch1.lengthStep()
		a.ch2.lengthStep()
		a.ch3.lengthStep()
		a.ch4.lengthStep()
		a.ch1.sweepStep()
	case 7:
		a.ch1.envelopeStep()
		a.ch2.envelopeStep()
		a.ch4.envelopeStep()
	}
	a.frameSeqStep = (a.frameSeqStep + 1) & 7
}

func (a *APU) emitSample() {
	var left, right float32
	if a.enabled {
		amps := [4]float32{a.ch1.amplitude(), a.ch2.amplitude(), a.ch3.amplitude(), a.ch4.amplitude()}
		for i, amp := range amps {
			if a.leftEnable[i] {
				left += amp
			}
			if a.rightEnable[i] {
				right += amp
			}
		}
		left = left * (float32(a.volumeLeft) + 1) / 32
		right = right * (float32(a.volumeRight) + 1) / 32
	}

	if a.count >= sampleBufferCapacity {
		// host isn't draining fast enough; drop the oldest frame.
		a.head = (a.head + 1) % sampleBufferCapacity
		a.count--
	}
	idx := (a.head + a.count) % sampleBufferCapacity
	a.buffer[idx*2] = left
	a.buffer[idx*2+1] = right
	a.count++
}

// Drain copies up to len(into)/2 stereo frames into into (interleaved L,R)
// and returns the number of frames written.
func (a *APU) Drain(into []float32) int {
	frames := len(into) / 2
	n := 0
	for n < frames && a.count > 0 {
		into[n*2] = a.buffer[a.head*2]
		into[n*2+1] = a.buffer[a.head*2+1]
		a.head = (a.head + 1) % sampleBufferCapacity
		a.count--
		n++
	}
	return n
}

func (a *APU) Read(addr uint16) uint8 {
	switch {
	case addr >= 0xFF10 && addr <= 0xFF14:
		return a.ch1.read(addr - 0xFF10)
	case addr >= 0xFF16 && addr <= 0xFF19:
		return a.ch2.read(addr - 0xFF15)
	case addr >= 0xFF1A && addr <= 0xFF1E:
		return a.ch3.read(addr - 0xFF1A)
	case addr >= 0xFF20 && addr <= 0xFF23:
		return a.ch4.read(addr - 0xFF1F)
	case addr == types.NR50:
		b := a.volumeRight | a.volumeLeft<<4
		if a.vinRight {
			b |= 0x08
		}
		if a.vinLeft {
			b |= 0x80
		}
		return b
	case addr == types.NR51:
		b := uint8(0)
		for i := 0; i < 4; i++ {
			if a.rightEnable[i] {
				b |= 1 << i
			}
			if a.leftEnable[i] {
				b |= 1 << (i + 4)
			}
		}
		return b
	case addr == types.NR52:
		b := uint8(0x70)
		if a.enabled {
			b |= 0x80
		}
		if a.ch1.enabled {
			b |= 0x01
		}
		if a.ch2.enabled {
			b |= 0x02
		}
		if a.ch3.enabled {
			b |= 0x04
		}
		if a.ch4.enabled {
			b |= 0x08
		}
		return b
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return a.ch3.readWaveRAM(addr)
	}
	return 0xFF
}

func (a *APU) Write(addr uint16, value uint8) {
	if !a.enabled && addr != types.NR52 && !(addr >= 0xFF30 && addr <= 0xFF3F) {
		return
	}
	switch {
	case addr >= 0xFF10 && addr <= 0xFF14:
		a.ch1.write(addr-0xFF10, value)
	case addr >= 0xFF16 && addr <= 0xFF19:
		a.ch2.write(addr-0xFF15, value)
	case addr >= 0xFF1A && addr <= 0xFF1E:
		a.ch3.write(addr-0xFF1A, value)
	case addr >= 0xFF20 && addr <= 0xFF23:
		a.ch4.write(addr-0xFF1F, value)
	case addr == types.NR50:
		a.volumeRight = value & 0x07
		a.volumeLeft = (value >> 4) & 0x07
		a.vinRight = value&0x08 != 0
		a.vinLeft = value&0x80 != 0
	case addr == types.NR51:
		for i := 0; i < 4; i++ {
			a.rightEnable[i] = value&(1<<i) != 0
			a.leftEnable[i] = value&(1<<(i+4)) != 0
		}
	case addr == types.NR52:
		wasEnabled := a.enabled
		a.enabled = value&0x80 != 0
		if wasEnabled && !a.enabled {
			a.powerOff()
		}
	case addr >= 0xFF30 && addr <= 0xFF3F:
		a.ch3.writeWaveRAM(addr, value)
	}
}

// powerOff clears all registers except each channel's length counter,
// matching the real APU's behavior when NR52 bit7 is cleared.
func (a *APU) powerOff() {
	ch1Length := a.ch1.lengthCounter
	ch2Length := a.ch2.lengthCounter
	ch3Length := a.ch3.lengthCounter
	ch3Wave := a.ch3.waveRAM
	ch4Length := a.ch4.lengthCounter

	a.ch1 = squareChannel{hasSweep: true}
	a.ch2 = squareChannel{}
	a.ch3 = waveChannel{}
	a.ch4 = noiseChannel{}

	a.ch1.lengthCounter = ch1Length
	a.ch2.lengthCounter = ch2Length
	a.ch3.lengthCounter = ch3Length
	a.ch3.waveRAM = ch3Wave
	a.ch4.lengthCounter = ch4Length

	a.volumeLeft, a.volumeRight = 0, 0
	a.vinLeft, a.vinRight = false, false
	a.leftEnable, a.rightEnable = [4]bool{}, [4]bool{}
}

var _ types.Stater = (*APU)(nil)

func (a *APU) Save(s *types.State) {
	s.WriteBool(a.enabled)
	a.ch1.save(s)
	a.ch2.save(s)
	a.ch3.save(s)
	a.ch4.save(s)
	s.Write32(uint32(a.frameSeqCounter))
	s.Write8(a.frameSeqStep)
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	s.Write8(a.volumeLeft)
	s.Write8(a.volumeRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.leftEnable[i])
		s.WriteBool(a.rightEnable[i])
	}
}

func (a *APU) Load(s *types.State) {
	a.enabled = s.ReadBool()
	a.ch1.load(s)
	a.ch2.load(s)
	a.ch3.load(s)
	a.ch4.load(s)
	a.frameSeqCounter = int(s.Read32())
	a.frameSeqStep = s.Read8()
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	a.volumeLeft = s.Read8()
	a.volumeRight = s.Read8()
	for i := 0; i < 4; i++ {
		a.leftEnable[i] = s.ReadBool()
		a.rightEnable[i] = s.ReadBool()
	}
}
