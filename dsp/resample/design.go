package resample

import (
	"errors"
	"math"
)

// designBranches builds a Kaiser-windowed sinc low-pass of spec.taps*up
// taps, scaled for a passband gain of up, and splits it into up polyphase
// branches.
func designBranches(up, down int, spec filterSpec) ([][]float64, error) {
	if spec.taps <= 0 {
		return nil, errors.New("resample: taps per branch must be > 0")
	}

	n := spec.taps * up
	fc := 0.5 / float64(max(up, down)) * spec.cutoff
	center := float64(n-1) / 2

	proto := make([]float64, n)

	var sum float64

	for i := range proto {
		t := float64(i) - center
		proto[i] = 2 * fc * sinc(2*fc*t) * kaiser(i, n, spec.beta)
		sum += proto[i]
	}

	if sum == 0 {
		return nil, errors.New("resample: degenerate filter")
	}

	gain := float64(up) / sum
	branches := make([][]float64, up)

	for p := range branches {
		for i := p; i < n; i += up {
			branches[p] = append(branches[p], proto[i]*gain)
		}
	}

	return branches, nil
}

// approximateRatio finds num/den close to v with den <= maxDen using
// continued fractions.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if !(v > 0) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0

	for x := v; ; {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0, p1, q1 = p1, q1, a*p1+p0, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	if a < 0 {
		return -a
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1

	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 sums the power series of the modified Bessel function I0.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4

	for k := 1; k < 64; k++ {
		term *= q / float64(k*k)
		sum += term

		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
