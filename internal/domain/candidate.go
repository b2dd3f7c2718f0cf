package domain

import (
	"fmt"
	"strings"
)

// Candidate identifies one of the four entrants in an election.
// The set is closed: only CandidateA through CandidateD exist.
type Candidate int

// The fixed candidate enumeration. The numeric order is significant: it is
// the tie-break order used whenever two candidates are otherwise equal.
const (
	CandidateA Candidate = iota
	CandidateB
	CandidateC
	CandidateD
)

// NumCandidates is the size of the closed candidate set.
const NumCandidates = 4

// Candidates returns every candidate in enumeration order.
func Candidates() []Candidate {
	return []Candidate{CandidateA, CandidateB, CandidateC, CandidateD}
}

var candidateNames = [NumCandidates]string{"a", "b", "c", "d"}

// String returns the symbolic identifier ("a" through "d").
func (c Candidate) String() string {
	if !c.Valid() {
		return fmt.Sprintf("candidate(%d)", int(c))
	}
	return candidateNames[c]
}

// Valid reports whether c belongs to the closed candidate set.
func (c Candidate) Valid() bool { return c >= CandidateA && c <= CandidateD }

// ParseCandidate converts a symbolic identifier into a Candidate.
// Matching ignores case and surrounding whitespace.
func ParseCandidate(s string) (Candidate, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range candidateNames {
		if n == name {
			return Candidate(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCandidate, s)
}

// MarshalText implements encoding.TextMarshaler so candidates serialize as
// their symbolic names in JSON and YAML.
func (c Candidate) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCandidate, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Candidate) UnmarshalText(text []byte) error {
	parsed, err := ParseCandidate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
