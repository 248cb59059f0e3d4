package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirs(t *testing.T) {
	src, out, err := resolveDirs("a", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", src)
	assert.Equal(t, "b", out)

	src, out, err = resolveDirs("a", "b", []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", src)
	assert.Equal(t, "y", out)

	_, _, err = resolveDirs("a", "", []string{"only-one"})
	require.ErrorIs(t, err, errUsage)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv(envSeed, "")
	seed, err := envUint(envSeed, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seed)

	t.Setenv(envSeed, "18446744073709551615")
	seed, err = envUint(envSeed, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), seed)

	t.Setenv(envSeed, "-1")
	_, err = envUint(envSeed, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), envSeed)

	t.Setenv(envWorkers, "12")
	workers, err := envInt(envWorkers, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, workers)

	t.Setenv(envWorkers, "many")
	_, err = envInt(envWorkers, 0)
	require.Error(t, err)

	t.Setenv(envProfiles, "")
	assert.Equal(t, "96k,48k", envString(envProfiles, []string{"96k", "48k"}))
	t.Setenv(envProfiles, "24k")
	assert.Equal(t, "24k", envString(envProfiles, []string{"96k"}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{".wav", ".FLAC"}, splitList(" .wav, ,.FLAC,"))
	assert.Nil(t, splitList(""))
}
