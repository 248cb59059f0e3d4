package transcode

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/profile"
	"github.com/tphakala/spectroset/internal/spectrogram"
	"github.com/tphakala/spectroset/internal/testutil"
)

const labelContent = "0 0.51 0.42 0.10 0.33\n1 0.12 0.80 0.05 0.07\n"

// smallCatalog keeps FFT sizes small so tests run quickly.
var smallCatalog = profile.Catalog{
	{Name: "16k", SampleRate: 16000, Window: 128, Hop: 32},
	{Name: "8k", SampleRate: 8000, Window: 64, Hop: 16},
	{Name: "4k", SampleRate: 4000, Window: 32, Hop: 8},
}

func newTranscoder(t *testing.T, catalog profile.Catalog) *Transcoder {
	t.Helper()
	tc := &Transcoder{
		Layout:   dataset.Layout{Root: filepath.Join(t.TempDir(), "out")},
		Catalog:  catalog,
		Renderer: spectrogram.Renderer{Width: 80, Height: 60},
		TopDB:    spectrogram.DefaultTopDB,
	}
	require.NoError(t, tc.Validate())
	return tc
}

func writeRecording(t *testing.T, dir, stem string, seconds float64, labelExt string) string {
	t.Helper()
	const rate = 22050
	path := filepath.Join(dir, stem+".wav")
	testutil.WriteWAV(t, path, rate, testutil.Sine(int(seconds*rate), 1000, rate, 0.5))
	if labelExt != "" {
		testutil.WriteFile(t, filepath.Join(dir, stem+labelExt), labelContent)
	}
	return path
}

func TestProcess_WritesEveryProfile(t *testing.T) {
	tc := newTranscoder(t, smallCatalog)
	path := writeRecording(t, t.TempDir(), "rec_001", 0.5, ".txt")

	res := tc.Process(path, dataset.Train)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, len(smallCatalog), res.Profiles)
	assert.Equal(t, "rec_001", res.Stem)
	assert.Equal(t, dataset.Train, res.Split)
	assert.Positive(t, res.Bytes)
	assert.Positive(t, res.Elapsed)

	for _, p := range smallCatalog {
		imagePath := tc.Layout.ImagePath(p.Name, dataset.Train, "rec_001")
		f, err := os.Open(imagePath)
		require.NoError(t, err, p.Name)
		img, err := png.Decode(f)
		_ = f.Close()
		require.NoError(t, err)
		assert.Equal(t, 80, img.Bounds().Dx())
		assert.Equal(t, 60, img.Bounds().Dy())

		label, err := os.ReadFile(tc.Layout.LabelPath(p.Name, dataset.Train, "rec_001"))
		require.NoError(t, err)
		assert.Equal(t, labelContent, string(label))

		assert.NoDirExists(t, tc.Layout.ImageDir(p.Name, dataset.Val))
	}
}

func TestProcess_DefaultCatalog(t *testing.T) {
	tc := newTranscoder(t, profile.Default())
	path := writeRecording(t, t.TempDir(), "birdcall", 0.2, ".txt")

	res := tc.Process(path, dataset.Test)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, 3, res.Profiles)

	for _, name := range []string{profile.Name96k, profile.Name48k, profile.Name24k} {
		assert.FileExists(t, tc.Layout.ImagePath(name, dataset.Test, "birdcall"))
		assert.FileExists(t, tc.Layout.LabelPath(name, dataset.Test, "birdcall"))
	}
}

func TestProcess_UpperCaseLabel(t *testing.T) {
	tc := newTranscoder(t, smallCatalog)
	path := writeRecording(t, t.TempDir(), "loud", 0.2, ".TXT")

	res := tc.Process(path, dataset.Val)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusProcessed, res.Status)

	got, err := os.ReadFile(tc.Layout.LabelPath("8k", dataset.Val, "loud"))
	require.NoError(t, err)
	assert.Equal(t, labelContent, string(got))
}

func TestProcess_SkipsUnlabelled(t *testing.T) {
	tc := newTranscoder(t, smallCatalog)
	path := writeRecording(t, t.TempDir(), "orphan", 0.2, "")

	res := tc.Process(path, dataset.Train)
	assert.Equal(t, StatusSkipped, res.Status)
	require.ErrorIs(t, res.Err, ErrNoLabel)
	assert.Zero(t, res.Profiles)
	assert.Zero(t, res.Bytes)
	assert.NoDirExists(t, tc.Layout.Root)
}

func TestProcess_UndecodableAudio(t *testing.T) {
	tc := newTranscoder(t, smallCatalog)
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.wav")
	testutil.WriteFile(t, path, "RIFF but not really")
	testutil.WriteFile(t, filepath.Join(dir, "broken.txt"), labelContent)

	res := tc.Process(path, dataset.Train)
	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Zero(t, res.Profiles)
	assert.NoDirExists(t, tc.Layout.Root)
}

func TestProcess_TooShortKeepsPartialOutput(t *testing.T) {
	catalog := profile.Catalog{
		{Name: "8k", SampleRate: 8000, Window: 64, Hop: 16},
		{Name: "4k", SampleRate: 4000, Window: 64, Hop: 16},
		{Name: "2k", SampleRate: 2000, Window: 16, Hop: 4},
	}
	tc := newTranscoder(t, catalog)

	// 80 samples at 8 kHz become 40 at 4 kHz, shorter than the 64-sample window.
	dir := t.TempDir()
	path := filepath.Join(dir, "blip.wav")
	testutil.WriteWAV(t, path, 8000, testutil.Sine(80, 500, 8000, 0.5))
	testutil.WriteFile(t, filepath.Join(dir, "blip.txt"), labelContent)

	res := tc.Process(path, dataset.Train)
	assert.Equal(t, StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, spectrogram.ErrSignalTooShort)
	assert.Contains(t, res.Err.Error(), "profile 4k")
	assert.Equal(t, 1, res.Profiles)

	assert.FileExists(t, tc.Layout.ImagePath("8k", dataset.Train, "blip"))
	assert.FileExists(t, tc.Layout.LabelPath("8k", dataset.Train, "blip"))
	assert.NoFileExists(t, tc.Layout.ImagePath("4k", dataset.Train, "blip"))
	assert.NoDirExists(t, tc.Layout.ImageDir("2k", dataset.Train))
}

func TestProcess_OverwritesAndIsDeterministic(t *testing.T) {
	tc := newTranscoder(t, smallCatalog)
	path := writeRecording(t, t.TempDir(), "again", 0.3, ".txt")

	imagePath := tc.Layout.ImagePath("16k", dataset.Test, "again")
	labelPath := tc.Layout.LabelPath("16k", dataset.Test, "again")
	testutil.WriteFile(t, labelPath, "stale label that is longer than the real one\n\n\n\n")

	first := tc.Process(path, dataset.Test)
	require.NoError(t, first.Err)
	firstImage, err := os.ReadFile(imagePath)
	require.NoError(t, err)

	second := tc.Process(path, dataset.Test)
	require.NoError(t, second.Err)
	secondImage, err := os.ReadFile(imagePath)
	require.NoError(t, err)

	assert.Equal(t, firstImage, secondImage)
	assert.Equal(t, first.Bytes, second.Bytes)

	label, err := os.ReadFile(labelPath)
	require.NoError(t, err)
	assert.Equal(t, labelContent, string(label))
}

func TestValidate(t *testing.T) {
	valid := Transcoder{
		Layout:   dataset.Layout{Root: "/out"},
		Catalog:  smallCatalog,
		Renderer: spectrogram.DefaultRenderer(),
		TopDB:    80,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Transcoder)
	}{
		{"NoRoot", func(tc *Transcoder) { tc.Layout.Root = "" }},
		{"EmptyCatalog", func(tc *Transcoder) { tc.Catalog = nil }},
		{"BadRenderer", func(tc *Transcoder) { tc.Renderer.Width = 0 }},
		{"BadTopDB", func(tc *Transcoder) { tc.TopDB = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := valid
			tt.mutate(&tc)
			require.ErrorIs(t, tc.Validate(), ErrInvalidTranscoder)
		})
	}
}

func TestCopyLabel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.TXT")
	payload := "\x00binary\r\nlabel\xff"
	testutil.WriteFile(t, src, payload)

	dst := filepath.Join(dir, "dst.txt")
	n, err := CopyLabel(src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))

	_, err = CopyLabel(filepath.Join(dir, "missing.txt"), dst)
	require.Error(t, err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "processed", StatusProcessed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
