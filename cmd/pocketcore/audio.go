package main

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

// audioOut queues interleaved stereo float32 samples drained from the core
// to an SDL audio device. Unlike the teacher's callback-driven AudioData
// export, Core.DrainAudio is pull-based, so we queue samples once per frame
// instead of servicing a C callback.
type audioOut struct {
	device sdl.AudioDeviceID
	scratch []byte
}

func newAudioOut(sampleRate int) (*audioOut, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl audio: %w", err)
	}

	device, err := sdl.OpenAudioDevice("", false, &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  1024,
	}, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("sdl audio: open device: %w", err)
	}

	sdl.PauseAudioDevice(device, false)
	return &audioOut{device: device}, nil
}

// queue appends interleaved stereo samples to the device's playback buffer.
func (a *audioOut) queue(samples []float32) error {
	if cap(a.scratch) < len(samples)*4 {
		a.scratch = make([]byte, len(samples)*4)
	}
	buf := a.scratch[:len(samples)*4]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return sdl.QueueAudio(a.device, buf)
}

func (a *audioOut) close() {
	sdl.CloseAudioDevice(a.device)
}
