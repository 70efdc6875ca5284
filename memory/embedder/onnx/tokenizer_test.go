package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenizer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := LoadTokenizer(writeTokenizer(t, `{"model":{"vocab":{
		"[UNK]":100,"[CLS]":101,"[SEP]":102,
		"alice":2000,"lives":2001,"in":2002,"london":2003,
		"play":2004,"##ing":2005
	}}}`))
	require.NoError(t, err)
	return tok
}

func TestTokenizer_Tokenize(t *testing.T) {
	tok := testTokenizer(t)

	assert.Equal(t, []int64{2000, 2001, 2002, 2003}, tok.Tokenize("Alice lives in London."))
	assert.Equal(t, []int64{2004, 2005}, tok.Tokenize("playing"))
	assert.Equal(t, []int64{100, 100, 100}, tok.Tokenize("zzz"), "unknown runes map to [UNK]")
	assert.Empty(t, tok.Tokenize("  ?! "))
}

func TestTokenizer_Encode(t *testing.T) {
	tok := testTokenizer(t)

	ids, mask, types := tok.Encode("alice in london", 8)

	assert.Equal(t, []int64{101, 2000, 2002, 2003, 102, 0, 0, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0, 0, 0}, mask)
	assert.Equal(t, make([]int64, 8), types)
}

func TestTokenizer_EncodeTruncates(t *testing.T) {
	tok := testTokenizer(t)

	ids, mask, _ := tok.Encode("alice lives in london alice lives", 4)

	assert.Equal(t, []int64{101, 2000, 2001, 102}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1}, mask)
}

func TestLoadTokenizer_Errors(t *testing.T) {
	_, err := LoadTokenizer(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read tokenizer")

	_, err = LoadTokenizer(writeTokenizer(t, "not json"))
	assert.ErrorContains(t, err, "parse tokenizer")

	_, err = LoadTokenizer(writeTokenizer(t, `{"model":{}}`))
	assert.ErrorContains(t, err, "no vocabulary")
}
