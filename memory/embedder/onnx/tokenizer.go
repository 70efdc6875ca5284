package onnx

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// BERT special token ids.
const (
	clsToken = 101
	sepToken = 102
	unkToken = 100
)

// Tokenizer performs BERT-style WordPiece tokenization from a
// HuggingFace tokenizer.json vocabulary.
type Tokenizer struct {
	vocab map[string]int
}

// LoadTokenizer reads the vocabulary from a tokenizer.json file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if len(file.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer %s has no vocabulary", path)
	}

	return &Tokenizer{vocab: file.Model.Vocab}, nil
}

// Tokenize converts text to token ids, without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, piece := range t.wordPieces(word) {
			id, ok := t.vocab[piece]
			if !ok {
				id = unkToken
			}
			tokens = append(tokens, int64(id))
		}
	}
	return tokens
}

// Encode builds fixed-length model inputs: [CLS] tokens [SEP] padded to seqLen.
// Tokens past seqLen-2 are dropped.
func (t *Tokenizer) Encode(text string, seqLen int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	inputIDs = make([]int64, seqLen)
	attentionMask = make([]int64, seqLen)
	tokenTypeIDs = make([]int64, seqLen)

	tokens := t.Tokenize(text)
	if len(tokens) > seqLen-2 {
		tokens = tokens[:seqLen-2]
	}

	inputIDs[0] = clsToken
	attentionMask[0] = 1
	for i, tok := range tokens {
		inputIDs[i+1] = tok
		attentionMask[i+1] = 1
	}
	end := len(tokens) + 1
	inputIDs[end] = sepToken
	attentionMask[end] = 1

	return inputIDs, attentionMask, tokenTypeIDs
}

// wordPieces splits word greedily into the longest vocabulary prefixes.
// Continuations carry the "##" prefix.
func (t *Tokenizer) wordPieces(word string) []string {
	runes := []rune(word)
	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		for ; end > start; end-- {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := t.vocab[piece]; ok {
				pieces = append(pieces, piece)
				break
			}
		}
		if end == start {
			pieces = append(pieces, "[UNK]")
			end = start + 1
		}
		start = end
	}
	return pieces
}
