// Package chunk splits an indexed document's text into ordered,
// heading-bounded, token-ceilinged pieces and computes the stable content
// hash used to detect drift.
package chunk

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"lukechampine.com/blake3"
)

// CurrentVersion is the chunking algorithm version this package implements.
// Unknown versions fall back to CurrentVersion: a version-dispatch idiom
// of defaulting unrecognized variants to the latest known behavior rather
// than erroring.
const CurrentVersion = 1

// MaxTokensPerChunk is the token ceiling a single chunk must not exceed
// before being split further by raw token count.
const MaxTokensPerChunk = 1000

// Document splits contents into ordered chunks for the given chunking
// version. Unknown versions are treated as CurrentVersion.
func Document(contents string, version int) []string {
	switch version {
	case CurrentVersion:
		return chunkV1(contents)
	default:
		return chunkV1(contents)
	}
}

// HashContent returns the deterministic 256-bit blake3 hex digest of text,
// used as both doc.last_hash and segment.last_hash.
func HashContent(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hexEncode(sum[:])
}

func chunkV1(contents string) []string {
	sections := splitMajorSections(contents)
	chunks := make([]string, 0, len(sections))

	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if countTokens(section) <= MaxTokensPerChunk {
			chunks = append(chunks, section)
		} else {
			chunks = append(chunks, splitSectionByTokens(section, MaxTokensPerChunk)...)
		}
	}

	if len(chunks) == 0 && strings.TrimSpace(contents) != "" {
		trimmed := strings.TrimSpace(contents)
		if countTokens(trimmed) <= MaxTokensPerChunk {
			chunks = append(chunks, trimmed)
		} else {
			chunks = append(chunks, splitSectionByTokens(trimmed, MaxTokensPerChunk)...)
		}
	}

	return chunks
}

// splitMajorSections splits contents at lines whose trimmed prefix is a
// 1-3 `#` heading marker. Each section retains its own heading line.
func splitMajorSections(contents string) []string {
	var sections []string
	var current strings.Builder

	lines := strings.Split(contents, "\n")
	for _, line := range lines {
		if isMajorHeadingLine(line) && strings.TrimSpace(current.String()) != "" {
			sections = append(sections, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if strings.TrimSpace(current.String()) != "" {
		sections = append(sections, strings.TrimSpace(current.String()))
	}

	if len(sections) == 0 && strings.TrimSpace(contents) != "" {
		sections = append(sections, strings.TrimSpace(contents))
	}
	return sections
}

func isMajorHeadingLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}

	hashes := 0
	for hashes < len(trimmed) && trimmed[hashes] == '#' {
		hashes++
	}
	if hashes == 0 || hashes > 3 {
		return false
	}

	if hashes == len(trimmed) {
		return true
	}
	next := rune(trimmed[hashes])
	return next == ' ' || next == '\t' || next == '\r'
}

func splitSectionByTokens(section string, maxTokens int) []string {
	section = strings.TrimSpace(section)
	if section == "" || maxTokens <= 0 {
		return nil
	}

	enc := encoder()
	tokens := enc.Encode(section, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	var out []string
	for start := 0; start < len(tokens); start += maxTokens {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		decoded := strings.TrimSpace(enc.Decode(tokens[start:end]))
		if decoded != "" {
			out = append(out, decoded)
		}
	}
	return out
}

func countTokens(text string) int {
	return len(encoder().Encode(text, nil, nil))
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// encoder lazily builds the process-wide cl100k_base BPE encoder once;
// building it per call would be wasteful given how often chunking runs.
func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		tk, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic("chunk: failed to initialize cl100k tokenizer: " + err.Error())
		}
		enc = tk
	})
	return enc
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
