//go:build portaudio

package pcmsource

import (
	"io"

	"github.com/blazeiburgess/openwakeword-go/pkg/audio/pcm"
	"github.com/blazeiburgess/openwakeword-go/pkg/audio/portaudio"
)

func init() {
	openMicrophone = func() (pcm.Source, io.Closer, error) {
		dev, err := portaudio.OpenDeviceSource(pcm.L16Mono16K, micBufferDuration)
		if err != nil {
			return nil, nil, err
		}
		return dev, dev, nil
	}
}
