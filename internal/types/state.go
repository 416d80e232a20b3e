package types

import "fmt"

// StateVersion is bumped whenever the on-disk layout of a snapshot changes.
// Restore rejects any blob whose version doesn't match.
const StateVersion uint32 = 3

// ErrSnapshotVersion is returned by Restore when a snapshot was produced by
// an incompatible version of the save-state engine.
type ErrSnapshotVersion struct {
	Got, Want uint32
}

func (e *ErrSnapshotVersion) Error() string {
	return fmt.Sprintf("snapshot version %d is not understood (want %d)", e.Got, e.Want)
}

// Stater is implemented by every component that participates in save-states.
type Stater interface {
	Save(*State)
	Load(*State)
}

// State is an append-only write buffer / sequential read cursor over the
// same byte slice, used to serialize and restore the whole console state in
// one linear pass without per-field framing.
type State struct {
	raw  []byte
	pos  int
}

// NewState returns an empty State ready for writing.
func NewState() *State {
	return &State{raw: make([]byte, 0, 1<<16)}
}

// StateFromBytes wraps an existing snapshot for reading.
func StateFromBytes(raw []byte) *State {
	return &State{raw: raw}
}

func (s *State) Bytes() []byte { return s.raw }

func (s *State) Write8(v uint8) { s.raw = append(s.raw, v) }

func (s *State) Write16(v uint16) { s.raw = append(s.raw, byte(v), byte(v>>8)) }

func (s *State) Write32(v uint32) {
	s.raw = append(s.raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (s *State) Write64(v uint64) {
	for i := 0; i < 8; i++ {
		s.raw = append(s.raw, byte(v>>(8*i)))
	}
}

func (s *State) WriteBool(v bool) {
	if v {
		s.raw = append(s.raw, 1)
	} else {
		s.raw = append(s.raw, 0)
	}
}

func (s *State) WriteData(data []byte) {
	s.Write32(uint32(len(data)))
	s.raw = append(s.raw, data...)
}

func (s *State) Read8() uint8 {
	v := s.raw[s.pos]
	s.pos++
	return v
}

func (s *State) Read16() uint16 {
	v := uint16(s.raw[s.pos]) | uint16(s.raw[s.pos+1])<<8
	s.pos += 2
	return v
}

func (s *State) Read32() uint32 {
	v := uint32(s.raw[s.pos]) | uint32(s.raw[s.pos+1])<<8 | uint32(s.raw[s.pos+2])<<16 | uint32(s.raw[s.pos+3])<<24
	s.pos += 4
	return v
}

func (s *State) Read64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(s.raw[s.pos+i]) << (8 * i)
	}
	s.pos += 8
	return v
}

func (s *State) ReadBool() bool {
	v := s.raw[s.pos] != 0
	s.pos++
	return v
}

func (s *State) ReadData() []byte {
	n := s.Read32()
	data := make([]byte, n)
	copy(data, s.raw[s.pos:s.pos+int(n)])
	s.pos += int(n)
	return data
}

// ReadInto reads exactly len(p) raw bytes without a length prefix, for
// components (like fixed-size RAM banks) that already know their own size.
func (s *State) ReadInto(p []byte) {
	copy(p, s.raw[s.pos:s.pos+len(p)])
	s.pos += len(p)
}

func (s *State) WriteRaw(p []byte) {
	s.raw = append(s.raw, p...)
}
