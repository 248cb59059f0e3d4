package resample

const (
	// A real FFT of size N has N/2 + 1 unique complex coefficients.
	hermitianDivisor = 2

	// Nyquist bin adjustments when the shared length is even.
	nyquistJoin  = 2.0
	nyquistSplit = 0.5

	// Largest prime factor left to gonum, whose generic radix costs O(n·p).
	maxSmoothFactor = 7

	// roundingFactor turns floor((2a + b) / 2b) into round(a / b).
	roundingFactor = 2
)
