package chunker

import (
	"errors"
	"strings"
)

const (
	DefaultChunkWords   = 400
	DefaultOverlapWords = 80
)

// ErrInvalidConfiguration is returned when the window would not advance.
var ErrInvalidConfiguration = errors.New("invalid chunk configuration")

// Split breaks text into windows of chunkWords words, each starting
// chunkWords-overlapWords words after the previous one. The last window is
// the first one that reaches the end of the input.
func Split(text string, chunkWords, overlapWords int) ([]string, error) {
	if chunkWords <= 0 || overlapWords < 0 || chunkWords <= overlapWords {
		return nil, ErrInvalidConfiguration
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := chunkWords - overlapWords
	chunks := make([]string, 0, len(words)/stride+1)
	for start := 0; start < len(words); start += stride {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
