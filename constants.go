package spectroset

// Configuration defaults.
const (
	// defaultWorkers of zero means one worker per CPU.
	defaultWorkers = 0

	// Seed zero asks Run to draw a random seed.
	randomSeed = 0

	extPrefix = "."
)

// defaultExtensions are the audio extensions discovered by default.
var defaultExtensions = []string{".wav", ".flac"}
