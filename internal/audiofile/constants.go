package audiofile

const (
	monoChannels = 1

	// Sample format constants
	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	bitsPerSample64 = 64
	bitsPerByte     = 8

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// 8-bit WAV samples are unsigned around this midpoint.
	uint8Midpoint = 128.0

	// WAV format tags
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE

	// Size of the fmt chunk for WAVE_FORMAT_EXTENSIBLE.
	wavExtensibleFmtSize = 40
)

// ksDataFormatSuffix is the tail shared by the KSDATAFORMAT_SUBTYPE GUIDs.
// The first two bytes of a subformat GUID carry the plain format tag.
var ksDataFormatSuffix = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71}
