package text

import (
	"bytes"

	"gitlab.com/tozd/go/errors"
)

// ReplacementResult contains the results of applying a rule set to one file
type ReplacementResult struct {
	// WasModified is true iff ModifiedContent differs byte-for-byte from OriginalContent
	WasModified bool

	// ReplacementCount is the number of matches replaced across all rules
	ReplacementCount int

	// RuleCounts holds the number of matches replaced per rule name
	RuleCounts map[string]int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements, in the original encoding
	ModifiedContent []byte
}

// Replacer applies an ordered rule set to in-memory content
type Replacer struct {
	rules []Rule
	codec Codec
}

// NewReplacer creates a Replacer. A nil codec means raw UTF-8 handling.
func NewReplacer(rules []Rule, codec Codec) *Replacer {
	if codec == nil {
		codec = RawCodec()
	}
	return &Replacer{
		rules: rules,
		codec: codec,
	}
}

// Rules returns the rules in application order
func (r *Replacer) Rules() []Rule {
	return r.rules
}

// Replace decodes content, applies every rule in order and re-encodes the
// text only if a rule changed it
func (r *Replacer) Replace(content []byte) (*ReplacementResult, error) {
	result := &ReplacementResult{
		OriginalContent: content,
		ModifiedContent: content,
		RuleCounts:      make(map[string]int, len(r.rules)),
	}

	decoded, err := r.codec.Decode(content)
	if err != nil {
		return nil, errors.Errorf("decoding content as %s: %w", r.codec.Name(), err)
	}

	current := decoded
	for _, rule := range r.rules {
		matches := rule.Pattern.FindAllIndex(current, -1)
		if len(matches) == 0 {
			continue
		}
		current = rule.Pattern.ReplaceAllLiteral(current, []byte(rule.Replacement))
		result.RuleCounts[rule.Name] += len(matches)
		result.ReplacementCount += len(matches)
	}

	// untouched text keeps the original bytes, even if a decode/encode round trip would not
	if bytes.Equal(current, decoded) {
		return result, nil
	}

	encoded, err := r.codec.Encode(current)
	if err != nil {
		return nil, errors.Errorf("encoding content as %s: %w", r.codec.Name(), err)
	}

	result.ModifiedContent = encoded
	result.WasModified = !bytes.Equal(encoded, content)
	return result, nil
}
