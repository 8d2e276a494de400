package audio

import (
	"encoding/binary"

	"github.com/dgnsrekt/tingshu/tts"
)

// resample converts 16-bit interleaved PCM to rate with linear
// interpolation. Audio already at rate, or with an unusable format, is
// returned unchanged.
func resample(audio *tts.Audio, rate int) *tts.Audio {
	if audio == nil || audio.SampleRate == rate || audio.SampleRate <= 0 || rate <= 0 || audio.Channels <= 0 {
		return audio
	}

	channels := audio.Channels
	frameSize := 2 * channels
	inFrames := len(audio.Data) / frameSize
	if inFrames == 0 {
		return audio
	}

	sample := func(frame, ch int) float64 {
		off := frame*frameSize + ch*2
		return float64(int16(binary.LittleEndian.Uint16(audio.Data[off:])))
	}

	ratio := float64(audio.SampleRate) / float64(rate)
	outFrames := inFrames * rate / audio.SampleRate
	out := make([]byte, outFrames*frameSize)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		next := min(idx+1, inFrames-1)
		for ch := 0; ch < channels; ch++ {
			v := sample(idx, ch)*(1-frac) + sample(next, ch)*frac
			binary.LittleEndian.PutUint16(out[i*frameSize+ch*2:], uint16(int16(v)))
		}
	}

	return &tts.Audio{
		Data:       out,
		SampleRate: rate,
		Channels:   channels,
		Duration:   tts.PCMDuration(len(out), rate, channels),
	}
}
