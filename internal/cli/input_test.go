package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	var w bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  alice \nlast"))

	got, err := readLine(r, "Username: ", &w)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", w.String())

	got, err = readLine(r, "", &w)
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = readLine(r, "", &w)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	var w bytes.Buffer
	readPassword = func(int) ([]byte, error) { return []byte("hunter22"), nil }
	got, err := promptPassword(&w)
	require.NoError(t, err)
	assert.Equal(t, "hunter22", got)
	assert.Equal(t, "Password: \n", w.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = promptPassword(&w)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("", false)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseDate("2026-03-14", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-03-14", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, 999999999, time.UTC), got)

	got, err = parseDate("2026-03-14T10:30:00+01:00", true)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))

	_, err = parseDate("14/03/2026", false)
	assert.Error(t, err)
}
