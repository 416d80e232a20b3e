// Command pocketcore is a reference host for the pocketcore emulation
// engine: it loads a cartridge, drives pkg/core at real-time pace through
// an SDL2 window, and persists battery RAM/RTC/save-states to disk.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/kaelindev/pocketcore/internal/corelog"
	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/ppu"
	"github.com/kaelindev/pocketcore/internal/romload"
	"github.com/kaelindev/pocketcore/internal/saves"
	"github.com/kaelindev/pocketcore/internal/types"
	"github.com/kaelindev/pocketcore/pkg/core"
)

func main() {
	app := cli.NewApp()
	app.Name = "pocketcore"
	app.Usage = "pocketcore [options] <ROM file>"
	app.Description = "A Game Boy / Game Boy Color emulation core"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom, file, f", Usage: "path to the ROM image (.gb/.gbc, optionally .zip/.gz/.7z)"},
		cli.StringFlag{Name: "save-dir", Value: ".", Usage: "directory for .sav/.rtc files"},
		cli.StringFlag{Name: "state-dir", Usage: "directory for .state save-state files (defaults to --save-dir)"},
		cli.BoolFlag{Name: "compress-state", Usage: "brotli-compress the save-state file"},
		cli.StringFlag{Name: "model, mode", Value: "auto", Usage: "dmg, cgb, or auto (follow the cartridge header)"},
		cli.StringFlag{Name: "palette", Value: "bw", Usage: "dmg color scheme: bw, light, or intense"},
		cli.IntFlag{Name: "scale", Value: 4, Usage: "window scale factor"},
		cli.BoolFlag{Name: "no-vsync", Usage: "disable renderer vsync pacing"},
		cli.BoolFlag{Name: "audio, a", Usage: "enable audio output"},
		cli.IntFlag{Name: "sample-rate", Value: 48000, Usage: "audio sample rate in Hz"},
		cli.BoolFlag{Name: "color-correction, cgb-correct", Usage: "apply CGB LCD color correction"},
		cli.StringFlag{Name: "spectate-addr", Usage: "if set, serve a read-only websocket frame relay on this address (e.g. :8080)"},
		cli.StringFlag{Name: "waveform-dump", Usage: "on exit, write a PNG plot of the trailing audio buffer to this path"},
		cli.StringFlag{Name: "screenshot", Usage: "on exit, write the final frame to this PNG path"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pocketcore:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	rom, err := romload.Load(romPath)
	if err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}

	model, err := parseModel(c.String("model"))
	if err != nil {
		return err
	}

	palette, err := parsePalette(c.String("palette"))
	if err != nil {
		return err
	}

	saveDir := c.String("save-dir")
	stateDir := c.String("state-dir")
	if stateDir == "" {
		stateDir = saveDir
	}
	compressState := c.Bool("compress-state")
	stem := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))

	priorSave, err := saves.LoadBatteryRAM(saveDir, stem)
	if err != nil {
		return fmt.Errorf("loading save: %w", err)
	}
	priorRTC, err := saves.LoadRTC(saveDir, stem)
	if err != nil {
		return fmt.Errorf("loading rtc: %w", err)
	}

	sampleRate := c.Int("sample-rate")

	opts := []core.Option{
		core.WithSampleRate(sampleRate),
		core.WithColorCorrection(c.Bool("color-correction")),
		core.WithPalette(palette),
		core.WithLogger(corelog.NewLogrus()),
	}
	if model != nil {
		opts = append(opts, core.WithModel(*model))
	}

	console, err := core.New(rom, priorSave, priorRTC, opts...)
	if err != nil {
		return fmt.Errorf("loading cartridge: %w", err)
	}

	priorState, err := loadState(stateDir, stem, compressState)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if priorState != nil {
		if err := console.Restore(priorState); err != nil {
			return fmt.Errorf("restoring state: %w", err)
		}
	}

	video, err := newVideoOut(console.Header().Title, c.Int("scale"), !c.Bool("no-vsync"))
	if err != nil {
		return err
	}
	defer video.close()

	var audio *audioOut
	if c.Bool("audio") {
		audio, err = newAudioOut(sampleRate)
		if err != nil {
			return err
		}
		defer audio.close()
	}

	var relay *spectatorRelay
	if addr := c.String("spectate-addr"); addr != "" {
		relay = serveSpectatorRelay(addr)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	var held joypad.Button
	audioScratch := make([]float32, sampleRate/30)
	var audioTrailing []float32
	var lastFrame []byte

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

running:
	for {
		select {
		case <-signals:
			break running
		case <-ticker.C:
			if pollInput(&held) {
				break running
			}

			out := console.RunFrame(core.Inputs{Buttons: held})
			if err := video.present(out.Frame); err != nil {
				return err
			}
			lastFrame = out.Frame
			if relay != nil {
				relay.publishFrame(out.Frame)
			}

			if audio != nil {
				n := console.DrainAudio(audioScratch)
				if n > 0 {
					samples := audioScratch[:n*2]
					if err := audio.queue(samples); err != nil {
						return err
					}
					audioTrailing = samples
				}
			}
		}
	}

	if err := saves.SaveBatteryRAM(saveDir, stem, console.BatteryRAM()); err != nil {
		return fmt.Errorf("saving battery ram: %w", err)
	}
	if err := saves.SaveRTC(saveDir, stem, console.RTCBlob()); err != nil {
		return fmt.Errorf("saving rtc: %w", err)
	}
	if err := saveState(stateDir, stem, compressState, console.Snapshot()); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	if path := c.String("screenshot"); path != "" && lastFrame != nil {
		if err := saveScreenshot(path, lastFrame, c.Int("scale")); err != nil {
			return fmt.Errorf("saving screenshot: %w", err)
		}
	}
	if path := c.String("waveform-dump"); path != "" && len(audioTrailing) > 0 {
		if err := dumpWaveform(path, audioTrailing); err != nil {
			return fmt.Errorf("dumping waveform: %w", err)
		}
	}

	return nil
}

func parseModel(s string) (*types.Model, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return nil, nil
	case "dmg":
		m := types.ModelDMG
		return &m, nil
	case "cgb":
		m := types.ModelCGB
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown --model %q (want dmg, cgb, or auto)", s)
	}
}

func parsePalette(s string) (ppu.DMGPalette, error) {
	switch strings.ToLower(s) {
	case "", "bw":
		return ppu.PaletteBlackWhite, nil
	case "light":
		return ppu.PaletteLightGreen, nil
	case "intense":
		return ppu.PaletteIntenseGreen, nil
	default:
		return 0, fmt.Errorf("unknown --palette %q (want bw, light, or intense)", s)
	}
}

// stateSlot is the single save-state slot the reference host round-trips
// across process restarts; nothing in this host exposes multiple slots.
const stateSlot = 0

func loadState(dir, stem string, compressed bool) ([]byte, error) {
	if compressed {
		return saves.LoadState(dir, stem, stateSlot)
	}
	return saves.LoadStateRaw(dir, stem, stateSlot)
}

func saveState(dir, stem string, compressed bool, snapshot []byte) error {
	if compressed {
		return saves.SaveState(dir, stem, stateSlot, snapshot)
	}
	return saves.SaveStateRaw(dir, stem, stateSlot, snapshot)
}
