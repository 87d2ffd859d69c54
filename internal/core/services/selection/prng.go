package selection

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// splitmix64 is a tiny deterministic generator with a fixed update rule,
// so a (student, quiz) seed replays the same sequence on every node and
// every release.
type splitmix64 struct {
	state uint64
}

func (s *splitmix64) Next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// seedFor derives the generator seed from the student and quiz identity.
// The hash keeps adjacent ids from producing adjacent seeds.
func seedFor(studentID, quizID string) uint64 {
	sum := blake2b.Sum256([]byte(studentID + ":" + quizID))
	return binary.BigEndian.Uint64(sum[:8])
}

// shuffle permutes idx in place with a Fisher-Yates walk from the high
// index down.
func (s *splitmix64) shuffle(idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := int(s.Next() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
}

// identity returns [0, 1, ... n).
func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
