package cartridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUnsupportedMapperType(t *testing.T) {
	rom := buildROM(MMM01, 0, 0, "X")
	h, err := ParseHeader(rom)
	require.NoError(t, err)

	_, err = New(rom, h, nil, nil, 0)
	require.Error(t, err)
	require.Equal(t, KindUnsupportedMapper, err.(*Error).Kind)
}

func TestNewRejectsMismatchedBatteryRAMSize(t *testing.T) {
	rom := buildROM(MBC1RAMBATT, 0, 0x02, "X") // declares 8KiB RAM
	h, err := ParseHeader(rom)
	require.NoError(t, err)

	_, err = New(rom, h, make([]byte, 100), nil, 0)
	require.Error(t, err)
	require.Equal(t, KindSaveCorrupt, err.(*Error).Kind)
}

func TestNewRejectsShortRTCBlob(t *testing.T) {
	rom := buildROM(MBC3RAMBATT, 0, 0x02, "X")
	h, err := ParseHeader(rom)
	require.NoError(t, err)

	_, err = New(rom, h, nil, []byte{1, 2, 3}, 0)
	require.Error(t, err)
	require.Equal(t, KindSaveCorrupt, err.(*Error).Kind)
}

func TestMBC1Bank0Aliasing(t *testing.T) {
	rom := buildROM(MBC1, 4, 0, "X") // 512KiB, 32 banks of 16KiB
	// tag every bank's first byte with its own index for identification.
	for bank := 0; bank < 32; bank++ {
		rom[bank*0x4000] = byte(bank)
	}

	m := newMBC1(rom, &Header{ROMSize: len(rom)})

	// selecting low=0 aliases to bank 1 in the switchable window.
	m.Write(0x2000, 0x00)
	require.Equal(t, uint8(1), m.Read(0x4000))

	m.Write(0x2000, 0x05)
	require.Equal(t, uint8(5), m.Read(0x4000))

	// bank 0 is always mapped at 0x0000-0x3FFF in mode 0 regardless of the
	// switchable-window selection.
	require.Equal(t, uint8(0), m.Read(0x0000))
}

func TestMBC3RTCLatch(t *testing.T) {
	m := newMBC3(make([]byte, 0x8000), &Header{RAMSize: 0, CartridgeType: MBC3TIMERRAMBATT}, 0)
	require.NotNil(t, m.rtc)

	m.Write(0x0000, 0x0A) // enable RAM/RTC access
	m.Write(0x4000, 0x08) // sel = seconds register

	m.rtc.seconds = 30
	m.Write(0x6000, 0x00) // arm the latch edge detector
	m.Write(0x6000, 0x01) // 0->1 edge latches the live counters

	require.Equal(t, uint8(30), m.Read(0xA000))

	m.rtc.seconds = 45 // live counter keeps advancing, latch must not follow
	require.Equal(t, uint8(30), m.Read(0xA000))
}
