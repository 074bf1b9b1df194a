package submissions

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// MaxIdentifierAttempts bounds how many public ids Create tries before giving up.
const MaxIdentifierAttempts = 3

var publicIDPattern = regexp.MustCompile(`^SUB-\d{6}-\d{4}$`)

// Generator produces public submission ids of the form SUB-YYYYMM-NNNN.
// Uniqueness is not guaranteed here; the repository rejects collisions.
type Generator struct {
	now  func() time.Time
	intn func(int) int
}

// NewGenerator creates a Generator using the system clock and a random suffix.
func NewGenerator() *Generator {
	return &Generator{
		now:  time.Now,
		intn: rand.IntN,
	}
}

// WithClock replaces the time source. Intended for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithRand replaces the suffix source. intn must return a value in [0, n).
func (g *Generator) WithRand(intn func(int) int) *Generator {
	g.intn = intn
	return g
}

// Generate returns a new candidate id for the current UTC month.
func (g *Generator) Generate() string {
	t := g.now().UTC()
	return fmt.Sprintf("SUB-%04d%02d-%04d", t.Year(), int(t.Month()), g.intn(10000))
}

// IsPublicID reports whether s has the shape of a generated id.
func IsPublicID(s string) bool {
	return publicIDPattern.MatchString(s)
}
