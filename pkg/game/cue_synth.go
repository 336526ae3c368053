package game

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// 提示音包络
const (
	cueAttack  = 5 * time.Millisecond
	cueRelease = 80 * time.Millisecond
	// cueOvertone 高八度泛音的混合比例
	cueOvertone = 0.3
)

// sineOscillator 正弦振荡器，输出 duration 个采样后结束
type sineOscillator struct {
	freq     float64
	phase    float64
	position int
	duration int
	rate     beep.SampleRate
}

func newSineOscillator(freq float64, samples int, rate beep.SampleRate) beep.Streamer {
	return &sineOscillator{freq: freq, duration: samples, rate: rate}
}

func (o *sineOscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		val := math.Sin(2 * math.Pi * o.phase)
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *sineOscillator) Err() error { return nil }

// cueEnvelope 线性起音/释音包络
type cueEnvelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newCueEnvelope(s beep.Streamer, total int, rate beep.SampleRate) beep.Streamer {
	return &cueEnvelope{
		streamer: s,
		attack:   rate.N(cueAttack),
		release:  min(rate.N(cueRelease), total),
		total:    total,
	}
}

func (e *cueEnvelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	releaseStart := e.total - e.release
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, false
		}
		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		}
		if e.position >= releaseStart && e.release > 0 {
			vol = math.Min(vol, float64(e.total-e.position)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *cueEnvelope) Err() error { return e.streamer.Err() }

// gain 以线性增益包装流；gain <= 0 时静音
func gain(s beep.Streamer, g float64) beep.Streamer {
	if g <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(g)}
}

// cueStreamer 基频 + 高八度泛音，经包络整形
func cueStreamer(freq float64, samples int, rate beep.SampleRate) beep.Streamer {
	fund := newCueEnvelope(newSineOscillator(freq, samples, rate), samples, rate)
	over := newCueEnvelope(newSineOscillator(2*freq, samples, rate), samples, rate)
	return beep.Mix(
		gain(fund, 1-cueOvertone),
		gain(over, cueOvertone),
	)
}

// SynthesizeCue 生成一段步态提示音
//
// 参数：
//   - freq: 基频（Hz）
//   - duration: 时长
//   - sampleRate: 采样率
//
// 返回：
//   - []byte: 16 位有符号小端双声道 PCM（ebiten audio 的原生格式），时长为 0 时返回 nil
func SynthesizeCue(freq float64, duration time.Duration, sampleRate int) []byte {
	rate := beep.SampleRate(sampleRate)
	frames := rate.N(duration)
	if frames <= 0 {
		return nil
	}
	return renderPCM(cueStreamer(freq, frames, rate), frames)
}

// renderPCM 把流渲染成恰好 frames 帧的 PCM，提前结束的部分补静音
func renderPCM(s beep.Streamer, frames int) []byte {
	out := make([]byte, 0, frames*4)
	buf := make([][2]float64, 512)
	for written := 0; written < frames; {
		n, ok := s.Stream(buf[:min(len(buf), frames-written)])
		for i := range n {
			l := int16(math.Max(-1, math.Min(1, buf[i][0])) * math.MaxInt16)
			r := int16(math.Max(-1, math.Min(1, buf[i][1])) * math.MaxInt16)
			out = binary.LittleEndian.AppendUint16(out, uint16(l))
			out = binary.LittleEndian.AppendUint16(out, uint16(r))
		}
		written += n
		if !ok || n == 0 {
			break
		}
	}
	for len(out) < frames*4 {
		out = append(out, 0, 0, 0, 0)
	}
	return out
}
