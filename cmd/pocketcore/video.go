package main

import (
	"fmt"

	"github.com/kaelindev/pocketcore/internal/joypad"
	"github.com/kaelindev/pocketcore/internal/ppu"
	"github.com/veandco/go-sdl2/sdl"
)

// videoOut owns the SDL2 window, renderer and streaming texture the core's
// RGBA frames are blitted into every RunFrame.
type videoOut struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
}

func newVideoOut(title string, scale int, vsync bool) (*videoOut, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	w, h := int32(ppu.ScreenWidth*scale), int32(ppu.ScreenHeight*scale)
	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl: create window: %w", err)
	}

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if vsync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl: create renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, ppu.ScreenWidth, ppu.ScreenHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl: create texture: %w", err)
	}

	return &videoOut{window: window, renderer: renderer, texture: texture}, nil
}

// present uploads one RGBA frame (as returned by core.FrameOutcome.Frame) and
// scales it to fill the window.
func (v *videoOut) present(frame []byte) error {
	if err := v.texture.Update(nil, frame, ppu.ScreenWidth*4); err != nil {
		return err
	}
	v.renderer.Clear()
	v.renderer.Copy(v.texture, nil, nil)
	v.renderer.Present()
	return nil
}

func (v *videoOut) close() {
	v.texture.Destroy()
	v.renderer.Destroy()
	v.window.Destroy()
	sdl.Quit()
}

// keyMapping binds the default keyboard layout to joypad buttons.
var keyMapping = map[sdl.Keycode]joypad.Button{
	sdl.K_RETURN: joypad.ButtonStart,
	sdl.K_RSHIFT: joypad.ButtonSelect,
	sdl.K_z:      joypad.ButtonA,
	sdl.K_x:      joypad.ButtonB,
	sdl.K_UP:     joypad.ButtonUp,
	sdl.K_DOWN:   joypad.ButtonDown,
	sdl.K_LEFT:   joypad.ButtonLeft,
	sdl.K_RIGHT:  joypad.ButtonRight,
}

// pollInput drains the SDL event queue, updating held and reporting whether
// the host asked to quit.
func pollInput(held *joypad.Button) (quit bool) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			btn, ok := keyMapping[e.Keysym.Sym]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				*held |= btn
			} else if e.Type == sdl.KEYUP {
				*held &^= btn
			}
		}
	}
	return quit
}
