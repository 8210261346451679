// Search over record descriptions and indexed ids.
//
// Search streams records from a Reader and matches against the header
// line. Literal patterns (no regex metacharacters) take a fast path with
// bytes.Contains; anything else is compiled with regexp. Matching runs on
// the view's description bytes in the Reader's buffer, so nothing is
// copied unless it matches.
//
// Case-insensitive literal search lowers both needle and description.
// That allocates per record, but descriptions are short compared with the
// sequences that follow them.
//
// Index.Match matches a regex against the ids stored in an index without
// touching the FASTA file.
//
// Both yield lazily; break from the range loop to stop early.
package fasta

import (
	"bytes"
	"io"
	"iter"
	"regexp"
)

// SearchOptions configures Search.
type SearchOptions struct {
	CaseSensitive bool
	IDOnly        bool // match the id instead of the whole description
}

// Match is a single search result.
type Match struct {
	ID       string
	Position Position
}

// matcher compiles pattern into a byte matcher.
func matcher(pattern string, caseSensitive bool) (func([]byte) bool, error) {
	if regexp.QuoteMeta(pattern) == pattern {
		needle := []byte(pattern)
		if caseSensitive {
			return func(b []byte) bool { return bytes.Contains(b, needle) }, nil
		}
		lower := bytes.ToLower(needle)
		return func(b []byte) bool { return bytes.Contains(bytes.ToLower(b), lower) }, nil
	}

	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, ErrInvalidPattern
	}
	return re.Match, nil
}

// Search yields the records remaining in r whose description matches
// pattern.
func Search(r *Reader, pattern string, opts SearchOptions) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		match, err := matcher(pattern, opts.CaseSensitive)
		if err != nil {
			yield(Match{}, err)
			return
		}

		for {
			view, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Match{}, err)
				return
			}

			subject := view.Description()
			if opts.IDOnly {
				subject = view.ID()
			}
			if !match(subject) {
				continue
			}
			pos, _ := r.Position()
			if !yield(Match{ID: string(view.ID()), Position: pos}, nil) {
				return
			}
		}
	}
}

// Match yields indexed records whose id matches the regex pattern, in
// index order.
func (idx *Index) Match(pattern string) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		re, err := regexp.Compile(pattern)
		if err != nil {
			yield(Match{}, ErrInvalidPattern)
			return
		}
		for e, err := range idx.Entries() {
			if err != nil {
				yield(Match{}, err)
				return
			}
			if re.MatchString(e.ID) {
				if !yield(Match{ID: e.ID, Position: e.Position()}, nil) {
					return
				}
			}
		}
	}
}
