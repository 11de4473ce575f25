package analysis

import (
	"math"
	"testing"
)

func TestFFTRecoversSingleTone(t *testing.T) {
	n := 256
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 8 * float64(i) / float64(n))
	}

	fft := FFT(data)
	peak := 0
	for i := 1; i < n/2; i++ {
		if cmplxAbs(fft[i]) > cmplxAbs(fft[peak]) {
			peak = i
		}
	}
	if peak != 8 {
		t.Errorf("peak bin = %d, want 8", peak)
	}
}

func TestPowerSpectrumIgnoresOffset(t *testing.T) {
	n := 200
	data := make([]float64, n)
	for i := range data {
		data[i] = 5.0 + math.Sin(2*math.Pi*10*float64(i)/256)
	}

	ps := PowerSpectrum(data)
	if ps[0] > ps[10]/10 {
		t.Errorf("DC bin %g not suppressed next to tone bin %g", ps[0], ps[10])
	}
}

func TestDominantFrequency(t *testing.T) {
	// 90 MHz tone sampled at 1e-10 s over 4096 samples.
	dt := 1e-10
	freq := 9e7
	data := make([]float64, 4096)
	for i := range data {
		data[i] = 0.05 + 0.03*math.Cos(2*math.Pi*freq*float64(i)*dt)
	}

	got := DominantFrequency(data, dt)
	if rel := math.Abs(got-freq) / freq; rel > 0.02 {
		t.Errorf("frequency = %g Hz, want %g Hz within 2%%", got, freq)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f := DominantFrequency(nil, 1e-10); f != 0 {
		t.Errorf("nil data frequency = %g", f)
	}
	if f := DominantFrequency([]float64{1, 1, 1, 1, 1, 1, 1, 1}, 1e-10); f != 0 {
		t.Errorf("flat data frequency = %g", f)
	}
	if f := DominantFrequency([]float64{1, 2}, 0); f != 0 {
		t.Errorf("zero dt frequency = %g", f)
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
