package math

import "github.com/chewxy/math32"

// Epsilon is the tolerance used by Equals.
const Epsilon float32 = 0.000001

// LargeEpsilon is the tolerance for quantities derived from several
// floating point operations.
const LargeEpsilon float32 = 0.00005

// Equals compares two floats with Epsilon tolerance.
func Equals(a, b float32) bool {
	return a+Epsilon >= b && a-Epsilon <= b
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Saturate restricts x to [0, 1].
func Saturate(x float32) float32 {
	return Clamp(x, 0, 1)
}

// SmoothStep is the Hermite step between lhs and rhs.
func SmoothStep(lhs, rhs, t float32) float32 {
	t = Saturate((t - lhs) / (rhs - lhs))
	return t * t * (3 - 2*t)
}

// SmoothStepEx blends t towards its smooth step by k.
// k = 0 returns t unchanged.
func SmoothStepEx(t, k float32) float32 {
	return Lerp(t, SmoothStep(0, 1, t), k)
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// Round rounds half away from zero.
func Round(x float32) float32 {
	return math32.Round(x)
}
