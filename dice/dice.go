// Package dice supplies the randomness a room needs: die faces and room codes.
package dice

import (
	"math/rand/v2"
	"strings"
)

// CodeAlphabet is the set of characters room codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Source produces die faces in [1,6] and short room codes.
type Source interface {
	Die() int
	Code(n int) string
}

// Rand is a Source backed by a PCG generator. It is not safe for concurrent use.
type Rand struct {
	r *rand.Rand
}

// New returns a deterministic Source for the given seed.
func New(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom returns a Source seeded from the runtime's random state.
func NewRandom() *Rand {
	return &Rand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (s *Rand) Die() int {
	return s.r.IntN(6) + 1
}

func (s *Rand) Code(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(CodeAlphabet[s.r.IntN(len(CodeAlphabet))])
	}
	return b.String()
}

// Scripted replays fixed faces and codes in order, then falls back to Fallback.
// Tests use it to force busts, wins and code collisions.
type Scripted struct {
	Faces    []int
	Codes    []string
	Fallback Source
}

func (s *Scripted) Die() int {
	if len(s.Faces) == 0 {
		return s.fallback().Die()
	}
	d := s.Faces[0]
	s.Faces = s.Faces[1:]
	return d
}

func (s *Scripted) Code(n int) string {
	if len(s.Codes) == 0 {
		return s.fallback().Code(n)
	}
	c := s.Codes[0]
	s.Codes = s.Codes[1:]
	return c
}

func (s *Scripted) fallback() Source {
	if s.Fallback == nil {
		s.Fallback = New(1)
	}
	return s.Fallback
}
