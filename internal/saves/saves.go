// Package saves persists battery RAM, RTC records, and save-states to disk
// as files in a caller-chosen directory, named from a caller-supplied stem.
package saves

import (
	"fmt"
	"io"
	"os"

	"github.com/google/brotli/go/cbrotli"
)

// LoadBatteryRAM reads the ".sav" file for stem, or nil if none exists yet.
func LoadBatteryRAM(dir, stem string) ([]byte, error) {
	return readIfExists(batteryPath(dir, stem))
}

// SaveBatteryRAM writes data to the ".sav" file for stem. Plain bytes, no
// compression: battery RAM is small and hosts expect to inspect/transplant
// these files directly, as the corpus's own saves.go does.
func SaveBatteryRAM(dir, stem string, data []byte) error {
	if data == nil {
		return nil
	}
	return os.WriteFile(batteryPath(dir, stem), data, 0644)
}

// LoadRTC reads the ".rtc" file for stem, or nil if none exists yet.
func LoadRTC(dir, stem string) ([]byte, error) {
	return readIfExists(rtcPath(dir, stem))
}

// SaveRTC writes the MBC3 real-time-clock record to the ".rtc" file for stem.
func SaveRTC(dir, stem string, data []byte) error {
	if data == nil {
		return nil
	}
	return os.WriteFile(rtcPath(dir, stem), data, 0644)
}

// SaveState brotli-compresses a snapshot and writes it to the ".state<N>"
// file for stem. Snapshots are large (the full VRAM/WRAM/OAM address space
// plus every subsystem's registers), so compressing them saves disk space.
func SaveState(dir, stem string, slot int, snapshot []byte) error {
	f, err := os.Create(statePath(dir, stem, slot))
	if err != nil {
		return err
	}
	defer f.Close()

	w := cbrotli.NewWriterLevel(f, 9)
	defer w.Close()

	if _, err := w.Write(snapshot); err != nil {
		return err
	}
	return w.Close()
}

// LoadState reads and decompresses the ".state<N>" file for stem, or nil if
// no state file exists yet.
func LoadState(dir, stem string, slot int) ([]byte, error) {
	f, err := os.Open(statePath(dir, stem, slot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := cbrotli.NewReader(f)
	defer r.Close()

	return io.ReadAll(r)
}

// SaveStateRaw writes an uncompressed snapshot to the ".state<N>" file for
// stem, for hosts that pass --compress-state=false and would rather trade
// disk space for not depending on the brotli reader to inspect a state file.
func SaveStateRaw(dir, stem string, slot int, snapshot []byte) error {
	return os.WriteFile(statePath(dir, stem, slot), snapshot, 0644)
}

// LoadStateRaw reads an uncompressed snapshot previously written by
// SaveStateRaw, or nil if no state file exists yet.
func LoadStateRaw(dir, stem string, slot int) ([]byte, error) {
	return readIfExists(statePath(dir, stem, slot))
}

func batteryPath(dir, stem string) string { return fmt.Sprintf("%s/%s.sav", dir, stem) }
func rtcPath(dir, stem string) string     { return fmt.Sprintf("%s/%s.rtc", dir, stem) }
func statePath(dir, stem string, slot int) string {
	return fmt.Sprintf("%s/%s.state%d", dir, stem, slot)
}

func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
