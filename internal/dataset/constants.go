package dataset

const (
	// Split cut points in tenths of N: train = [0, 8N/10), val = [8N/10, 9N/10).
	trainTenths = 8
	valTenths   = 9
	tenths      = 10

	// Second PCG word; the seed supplies the first.
	pcgStream = 0x9E3779B97F4A7C15

	imagesDir = "images"
	labelsDir = "labels"

	// ExtImage and ExtLabel are the output file extensions.
	ExtImage = ".png"
	ExtLabel = ".txt"

	extLabelUpper = ".TXT"

	dirPerm = 0o755
)
