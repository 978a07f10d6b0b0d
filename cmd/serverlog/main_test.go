package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRecords = `
{"user_id": 42, "username": "User McUserton"}
{"user_id": 43, "username": "Senor Seconduser", "level": "info"}
`

// runServerlog runs the command with the given args and input.
func runServerlog(t *testing.T, input string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	exitCode = run(args, strings.NewReader(input), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), exitCode
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunOutputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "json",
			want: `{"user_id":42,"username":"User McUserton"}` + "\n" + `{"user_id":43,"username":"Senor Seconduser"}` + "\n",
		},
		{
			name: "text",
			args: []string{"-out", "text"},
			want: "42\tUser McUserton\n43\tSenor Seconduser\n",
		},
		{
			name: "fastjson backend",
			args: []string{"-backend", "fastjson", "-out", "text"},
			want: "42\tUser McUserton\n43\tSenor Seconduser\n",
		},
		{
			name: "count",
			args: []string{"-count"},
			want: "2\n",
		},
		{
			name: "explicit stdin",
			args: []string{"-out", "text", "-"},
			want: "42\tUser McUserton\n43\tSenor Seconduser\n",
		},
		{
			name: "colors",
			args: []string{"-color", "always", "-out", "text"},
			want: "\033[37m42\033[0m\t\033[32mUser McUserton\033[0m\n\033[37m43\033[0m\t\033[32mSenor Seconduser\033[0m\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runServerlog(t, twoRecords, tt.args...)
			assert.Equal(t, 0, code)
			assert.Empty(t, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRunEmptyInput(t *testing.T) {
	stdout, stderr, code := runServerlog(t, "", "-count")
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "0\n", stdout)
}

func TestRunDecodeError(t *testing.T) {
	stdout, stderr, code := runServerlog(t, `{"user_id": "not-a-number", "username": "X"}`)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "serverlog: <stdin>: schema error at line 1 column 1: field \"user_id\": invalid type: string, expected unsigned 32-bit integer\n", stderr)

	_, stderr, code = runServerlog(t, `{ "user_id": 42, "username": "Username"}}`, "-backend", "fastjson")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "serverlog: <stdin>: syntax error in record 1: "), stderr)

	stdout, stderr, code = runServerlog(t, `{"user_id": 0042, "username": "x"}`, "-backend", "fastjson")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "serverlog: <stdin>: syntax error in record 0: "), stderr)
}

func TestRunFiles(t *testing.T) {
	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = zw.Write([]byte(twoRecords))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	plain := writeFile(t, "plain.log", []byte(`{"user_id": 1, "username": "a"}`))
	zst := writeFile(t, "logs.zst", compressed.Bytes())

	stdout, stderr, code := runServerlog(t, "", "-count", plain, zst)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "1\t"+plain+"\n2\t"+zst+"\n", stdout)

	stdout, _, code = runServerlog(t, "", "-out", "text", zst)
	assert.Equal(t, 0, code)
	assert.Equal(t, "42\tUser McUserton\n43\tSenor Seconduser\n", stdout)
}

func TestRunStopsAtFirstBadFile(t *testing.T) {
	good := writeFile(t, "good.log", []byte(`{"user_id": 1, "username": "a"}`))
	bad := writeFile(t, "bad.log", []byte(`{ "something_unrelated" = true }`))

	stdout, stderr, code := runServerlog(t, "", "-out", "text", good, bad, good)
	assert.Equal(t, 1, code)
	assert.Equal(t, "1\ta\n", stdout)
	assert.Equal(t, "serverlog: "+bad+": syntax error at line 1 column 25: expected ':', got '='\n", stderr)
}

func TestRunMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.log")
	_, stderr, code := runServerlog(t, "", missing)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "serverlog: "+missing+": open ")
}

func TestRunUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-backend", "simd"},
		{"-out", "yaml"},
		{"-color", "sometimes"},
		{"-nosuchflag"},
	} {
		stdout, stderr, code := runServerlog(t, twoRecords, args...)
		assert.Equal(t, 2, code, args)
		assert.Empty(t, stdout, args)
		assert.NotEmpty(t, stderr, args)
	}
}

func TestRunHelp(t *testing.T) {
	_, stderr, code := runServerlog(t, "", "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "USAGE:")
	assert.Contains(t, stderr, "-backend")
}
