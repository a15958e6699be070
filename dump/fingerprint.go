package dump

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// pageFingerprint computes a 64-bit SimHash over the page's tag structure.
// Failed pages tend to be the same template over and over (a login wall, a
// private-profile notice, an anti-bot interstitial) with only the player
// name changing, so the fingerprint covers structure rather than text.
func pageFingerprint(doc string) uint64 {
	tags := tagSequence(doc)
	if len(tags) == 0 {
		return 0
	}

	// Shingles of adjacent tags capture local structure. Short documents
	// fall back to the raw tag sequence.
	shingles := tagShingles(tags, 3)
	if len(shingles) == 0 {
		shingles = tags
	}

	var vector [64]int
	for _, s := range shingles {
		h := fnv.New64a()
		h.Write([]byte(s))
		hash := h.Sum64()
		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// hammingDistance counts the bits on which two fingerprints differ.
func hammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// tagSequence collects opening tag names in document order.
func tagSequence(doc string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	var tags []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tags = append(tags, string(name))
		}
	}
}

func tagShingles(tags []string, n int) []string {
	if len(tags) < n {
		return nil
	}
	shingles := make([]string, 0, len(tags)-n+1)
	for i := 0; i <= len(tags)-n; i++ {
		shingles = append(shingles, strings.Join(tags[i:i+n], "_"))
	}
	return shingles
}
