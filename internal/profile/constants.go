package profile

// Built-in profile parameters. Window/hop scale with the rate so every
// profile covers roughly the same analysis duration per frame.
const (
	rate96k   = 96000
	window96k = 512
	hop96k    = 128

	rate48k   = 48000
	window48k = 256
	hop48k    = 64

	rate24k   = 24000
	window24k = 128
	hop24k    = 32
)

// profileFields is the number of colon-separated fields in an explicit
// catalog entry (name:rate:window:hop).
const profileFields = 4
