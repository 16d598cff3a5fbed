package ocr

import (
	"strings"
	"unicode"
)

// specialTokens are tokenizer markers that decoders may leak into output.
var specialTokens = []string{
	"<s>", "</s>", "<pad>", "<unk>", "<mask>",
	"[CLS]", "[SEP]", "[PAD]", "[UNK]", "[MASK]",
}

// CleanText strips special tokens and control characters and collapses whitespace.
func CleanText(t string) string {
	for _, tok := range specialTokens {
		t = strings.ReplaceAll(t, tok, " ")
	}
	t = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar || r == '\u200b' || r == '\ufeff' {
			return -1
		}
		return r
	}, t)
	return normalizeOCRText(t)
}

// normalizeOCRText collapses runs of whitespace into single spaces.
func normalizeOCRText(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
