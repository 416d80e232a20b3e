package cpu

import (
	"testing"

	"github.com/kaelindev/pocketcore/internal/apu"
	"github.com/kaelindev/pocketcore/internal/interrupts"
	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/mmu"
	"github.com/kaelindev/pocketcore/internal/serial"
	"github.com/kaelindev/pocketcore/internal/timer"
	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/stretchr/testify/require"
)

type stubMapper struct{ rom [0x8000]byte }

func (s *stubMapper) Read(addr uint16) uint8        { return s.rom[addr&0x7FFF] }
func (s *stubMapper) Write(uint16, uint8)           {}
func (s *stubMapper) Tick(int)                      {}
func (s *stubMapper) BatteryRAM() []byte            { return nil }
func (s *stubMapper) LoadBatteryRAM([]byte)         {}
func (s *stubMapper) RTCBlob() []byte               { return nil }
func (s *stubMapper) LoadRTCBlob([]byte)            {}
func (s *stubMapper) SetAccelerometer(int16, int16) {}
func (s *stubMapper) RumbleIntensity() uint8        { return 0 }
func (s *stubMapper) Save(*types.State)             {}
func (s *stubMapper) Load(*types.State)             {}

type stubPPU struct{ regs [0x100]uint8 }

func (s *stubPPU) ReadRegister(addr uint16) uint8     { return s.regs[addr&0xFF] }
func (s *stubPPU) WriteRegister(addr uint16, v uint8) { s.regs[addr&0xFF] = v }
func (s *stubPPU) Mode() uint8                        { return 0 }

func newTestCPU() (*CPU, *mmu.MMU, *interrupts.Service) {
	irq := interrupts.NewService()
	bus := mmu.New(types.ModelCGB, &stubMapper{}, irq, timer.New(irq), joypad.New(irq), serial.New(irq), apu.New())
	bus.PPU = &stubPPU{}
	return New(bus, irq), bus, irq
}

func TestNewSeedsPostBootRegisterState(t *testing.T) {
	c, _, _ := newTestCPU()
	require.Equal(t, uint16(0x0100), c.R.PC)
	require.Equal(t, uint16(0xFFFE), c.R.SP)
	require.Equal(t, uint16(0x01B0), c.R.af())
}

func TestStepNOPCostsFourCycles(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0x00)

	cycles := c.Step()
	require.Equal(t, 4, cycles)
	require.Equal(t, uint16(0xC001), c.R.PC)
}

func TestHaltBugDuplicatesNextInstruction(t *testing.T) {
	c, bus, irq := newTestCPU()
	c.R.PC = 0xC000
	c.R.A = 0x05
	bus.Write(0xC000, 0x76) // HALT
	bus.Write(0xC001, 0x3C) // INC A

	irq.Enable = 0xFF
	irq.Request(interrupts.VBlank)
	irq.IME = false

	c.Step() // executes HALT; IME false and an interrupt is pending, so the bug arms
	require.False(t, c.halted)
	require.True(t, c.haltBugPending)
	require.Equal(t, uint16(0xC001), c.R.PC)

	c.Step() // fetches the byte after HALT without advancing PC
	require.Equal(t, uint16(0xC001), c.R.PC, "PC must not advance on the bugged fetch")
	require.Equal(t, uint8(0x06), c.R.A)

	c.Step() // re-fetches the same byte, this time advancing normally
	require.Equal(t, uint16(0xC002), c.R.PC)
	require.Equal(t, uint8(0x07), c.R.A, "the instruction after HALT executes twice")
}

func TestHaltWithIMEServicesInterruptOnWake(t *testing.T) {
	c, bus, irq := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0x76) // HALT

	irq.IME = true
	irq.Enable = 0xFF

	c.Step() // HALT executes with IME true and nothing pending yet, so it halts normally
	require.True(t, c.halted)

	irq.Request(interrupts.Timer)

	sp := c.R.SP
	cycles := c.Step()
	require.Equal(t, 20, cycles)
	require.False(t, c.halted)
	require.False(t, irq.IME)
	require.Equal(t, interrupts.Vector[interrupts.Timer], c.R.PC)
	require.Equal(t, sp-2, c.R.SP)

	lo := bus.Read(c.R.SP)
	hi := bus.Read(c.R.SP + 1)
	require.Equal(t, uint16(0xC001), uint16(hi)<<8|uint16(lo), "the return address pushed is the instruction after HALT")
}

func TestEIEnablesIMEAfterTheFollowingInstruction(t *testing.T) {
	c, bus, irq := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0xFB) // EI
	bus.Write(0xC001, 0x00) // NOP

	c.Step() // EI itself does not enable IME yet
	require.False(t, irq.IME)

	c.Step() // IME takes effect after the instruction following EI
	require.True(t, irq.IME)
}

func TestStopIdlesUntilInterruptIsPending(t *testing.T) {
	c, bus, irq := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0x10) // STOP
	bus.Write(0xC001, 0x00) // ignored operand
	bus.Write(0xC002, 0x00) // NOP, resumed into after waking

	c.Step()
	require.True(t, c.stopped)

	cycles := c.Step()
	require.Equal(t, 4, cycles)
	require.True(t, c.stopped, "STOP holds with no pending interrupt")

	irq.Enable = 0xFF
	irq.Request(interrupts.Joypad)
	c.Step()
	require.False(t, c.stopped)
}

func TestIllegalOpcodeLocksCPU(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0xD3) // illegal opcode
	bus.Write(0xC001, 0x00) // NOP, never reached

	cycles := c.Step()
	require.Equal(t, 4, cycles)
	require.True(t, c.locked)
	require.Equal(t, uint16(0xC001), c.R.PC, "the illegal opcode itself is still fetched normally")

	cycles = c.Step()
	require.Equal(t, 4, cycles)
	require.Equal(t, uint16(0xC001), c.R.PC, "a locked CPU never fetches another instruction")

	irq := c.irq
	irq.Enable = 0xFF
	irq.Request(interrupts.VBlank)
	irq.IME = true
	cycles = c.Step()
	require.Equal(t, 4, cycles)
	require.True(t, c.locked, "unlike STOP/HALT, the lock is never cleared by a pending interrupt")
}

func TestDAACorrectsBCDAddition(t *testing.T) {
	c, _, _ := newTestCPU()
	c.R.A = c.add8(0x45, 0x38, false) // binary sum 0x7D
	c.daa()
	require.Equal(t, uint8(0x83), c.R.A, "45 + 38 in BCD is 83")
	require.False(t, c.R.flag(flagC))
}

func TestIncDecFlagInteraction(t *testing.T) {
	c, _, _ := newTestCPU()
	require.Equal(t, uint8(0x00), c.inc8(0xFF))
	require.True(t, c.R.flag(flagZ))
	require.True(t, c.R.flag(flagH))

	require.Equal(t, uint8(0xFF), c.dec8(0x00))
	require.False(t, c.R.flag(flagZ))
	require.True(t, c.R.flag(flagH))
}

func TestLDRegisterToRegisterOpcode(t *testing.T) {
	c, _, _ := newTestCPU()
	c.R.C = 0x99
	cycles := c.mainTable[0x41](c) // LD B,C
	require.Equal(t, 4, cycles)
	require.Equal(t, uint8(0x99), c.R.B)
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _, _ := newTestCPU()
	c.R.setBC(0x1234)
	sp := c.R.SP

	cycles := c.mainTable[0xC5](c) // PUSH BC
	require.Equal(t, 16, cycles)
	require.Equal(t, sp-2, c.R.SP)

	c.R.setBC(0x0000)
	cycles = c.mainTable[0xC1](c) // POP BC
	require.Equal(t, 12, cycles)
	require.Equal(t, uint16(0x1234), c.R.bc())
	require.Equal(t, sp, c.R.SP)
}

func TestJumpAbsolute(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0x34)
	bus.Write(0xC001, 0x12)

	cycles := c.mainTable[0xC3](c) // JP a16
	require.Equal(t, 16, cycles)
	require.Equal(t, uint16(0x1234), c.R.PC)
}

func TestCallAndReturn(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.R.PC = 0xC000
	c.R.SP = 0xFFFE
	bus.Write(0xC000, 0x00)
	bus.Write(0xC001, 0xD0) // target 0xD000

	cycles := c.mainTable[0xCD](c) // CALL a16
	require.Equal(t, 24, cycles)
	require.Equal(t, uint16(0xD000), c.R.PC)
	require.Equal(t, uint16(0xFFFC), c.R.SP)

	cycles = c.mainTable[0xC9](c) // RET
	require.Equal(t, 16, cycles)
	require.Equal(t, uint16(0xC002), c.R.PC, "RET returns to the instruction after CALL")
	require.Equal(t, uint16(0xFFFE), c.R.SP)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, bus, _ := newTestCPU()
	c.R.PC = 0xC000
	bus.Write(0xC000, 0x76)
	c.Step()

	st := types.NewState()
	c.Save(st)

	loaded, _, _ := newTestCPU()
	loaded.Load(types.StateFromBytes(st.Bytes()))

	require.Equal(t, c.R, loaded.R)
	require.Equal(t, c.halted, loaded.halted)
	require.Equal(t, c.haltBugPending, loaded.haltBugPending)
}
