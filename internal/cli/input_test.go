package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  hello \nnext\n")), "Prompt", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "Prompt\n> ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "Prompt", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Prompt", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Enter password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = GetPassword(&out)
	require.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(bufio.NewReader(strings.NewReader("line one\nline two\n\nafter\n")), "Summary", &out)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)
}

func TestGetMeta(t *testing.T) {
	var out bytes.Buffer

	got, err := GetMeta(bufio.NewReader(strings.NewReader("vendor = ACME\ncurrency=EUR\n\n")), &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendor":"ACME","currency":"EUR"}`, string(got))

	got, err = GetMeta(bufio.NewReader(strings.NewReader("\n")), &out)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = GetMeta(bufio.NewReader(strings.NewReader("no separator\n\n")), &out)
	require.Error(t, err)
}
