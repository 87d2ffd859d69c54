package domain

// ShuffleAssignment is the per-student, per-quiz record of which questions
// were selected and how questions/options were permuted for display. It is
// generated once and must be byte-for-byte reproducible from
// (studentID, quizID) alone; grading inverts exactly these permutations.
//
// DisplayOrder maps a display position to the canonical index within the
// selected question list: the question shown at position d is
// QuestionIDs[d] == selected[DisplayOrder[d]]. OptionPermutations maps a
// question id to a displayed-index -> canonical-index permutation over
// [0, optionCount); it is present only for shuffled multiple-choice
// questions and is always a bijection.
type ShuffleAssignment struct {
	StudentID          string           `json:"studentId"`
	QuizID             string           `json:"quizId"`
	QuestionIDs        []string         `json:"questionIds"`
	DisplayOrder       []int            `json:"displayOrder"`
	OptionPermutations map[string][]int `json:"optionPermutations,omitempty"`
}
