package spectrogram

// Analysis constants.
const (
	// Frames are centred: half a window of zero padding on each side.
	centerDivisor = 2

	// A real FFT of size N has N/2 + 1 unique complex coefficients.
	hermitianDivisor = 2

	// amin is the smallest magnitude considered before taking the log.
	amin = 1e-5

	// dbPerDecade converts log10 amplitude ratios to decibels.
	dbPerDecade = 20.0

	// DefaultTopDB is the dynamic range kept below the peak.
	DefaultTopDB = 80.0
)

// Rendering constants.
const (
	// DefaultWidth and DefaultHeight give a 10x10 inch canvas at 100 dpi.
	DefaultWidth  = 1000
	DefaultHeight = 1000

	// lutSize is the number of colour map entries.
	lutSize = 256

	opaque = 0xff

	filePerm = 0o644
)
