package transcribe

import (
	"strings"
	"unicode"
)

// WERResult holds detailed word error rate results.
type WERResult struct {
	WER           float64 // Word Error Rate (0.0 = perfect, 1.0+ = very bad)
	Substitutions int     // Words replaced with different words
	Insertions    int     // Extra words in hypothesis
	Deletions     int     // Words missing from hypothesis
	RefWords      int     // Total words in reference
}

// edit operations recorded during alignment.
const (
	opMatch = iota
	opSub
	opDel
	opIns
)

// ComputeWER calculates the word error rate between reference and hypothesis text.
// Both strings are normalized: lowercased, punctuation stripped, whitespace collapsed.
// WER = (Substitutions + Insertions + Deletions) / ReferenceWordCount.
func ComputeWER(reference, hypothesis string) WERResult {
	ref := normalizeWords(reference)
	hyp := normalizeWords(hypothesis)

	n := len(ref)
	if n == 0 {
		return WERResult{}
	}
	m := len(hyp)

	// Word-level Levenshtein alignment. cost holds the running edit
	// distance, op the operation that produced each cell, for the
	// backtrace that attributes errors to sub/ins/del.
	cost := make([][]int, n+1)
	op := make([][]uint8, n+1)
	for i := range cost {
		cost[i] = make([]int, m+1)
		op[i] = make([]uint8, m+1)
		cost[i][0] = i
		op[i][0] = opDel
	}
	for j := 1; j <= m; j++ {
		cost[0][j] = j
		op[0][j] = opIns
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if ref[i-1] == hyp[j-1] {
				cost[i][j] = cost[i-1][j-1]
				op[i][j] = opMatch
				continue
			}
			best, kind := cost[i-1][j-1], uint8(opSub)
			if cost[i-1][j] < best {
				best, kind = cost[i-1][j], opDel
			}
			if cost[i][j-1] < best {
				best, kind = cost[i][j-1], opIns
			}
			cost[i][j] = best + 1
			op[i][j] = kind
		}
	}

	var subs, ins, dels int
	for i, j := n, m; i > 0 || j > 0; {
		switch op[i][j] {
		case opMatch:
			i--
			j--
		case opSub:
			subs++
			i--
			j--
		case opDel:
			dels++
			i--
		case opIns:
			ins++
			j--
		}
	}

	return WERResult{
		WER:           float64(subs+ins+dels) / float64(n),
		Substitutions: subs,
		Insertions:    ins,
		Deletions:     dels,
		RefWords:      n,
	}
}

// normalizeWords lowercases text, strips punctuation, and splits into words.
func normalizeWords(s string) []string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
	return strings.Fields(s)
}
