package assignments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"gitlab.com/quizcore-2025.net/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type fakeQuizRepo struct {
	quizzes map[string]*domain.Quiz
}

func (r *fakeQuizRepo) GetQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	return r.quizzes[id], nil
}

type fixedSelection struct {
	assignment domain.ShuffleAssignment
}

func (s *fixedSelection) Compute(quiz *domain.Quiz, studentID string) domain.ShuffleAssignment {
	return s.assignment
}

func (s *fixedSelection) Assign(ctx context.Context, quiz *domain.Quiz, studentID string) (domain.ShuffleAssignment, error) {
	return s.assignment, nil
}

func testQuiz() *domain.Quiz {
	return &domain.Quiz{
		ID:    "quiz-1",
		Title: "Data Structures",
		Questions: []domain.Question{
			{
				ID:                 "q1",
				Type:               domain.QuestionTypeMultipleChoice,
				Points:             4,
				Options:            []string{"stack", "queue", "heap"},
				CorrectAnswerIndex: 2,
			},
			{
				ID:         "q2",
				Type:       domain.QuestionTypeCode,
				Points:     10,
				LanguageID: "python",
				TestCases: []domain.TestCase{
					{Input: "1 2", ExpectedOutput: "3"},
					{Input: "5 5", ExpectedOutput: "10", IsHidden: true},
				},
			},
		},
	}
}

func TestBuildViewDisplayOrderAndPermutedOptions(t *testing.T) {
	t.Parallel()

	quiz := testQuiz()
	assignment := domain.ShuffleAssignment{
		StudentID:   "student-1",
		QuizID:      quiz.ID,
		QuestionIDs: []string{"q2", "q1"},
		OptionPermutations: map[string][]int{
			"q1": {2, 0, 1},
		},
	}

	view, err := BuildView(quiz, &assignment)
	if err != nil {
		t.Fatal(err)
	}
	if got := []string{view.Questions[0].ID, view.Questions[1].ID}; !reflect.DeepEqual(got, []string{"q2", "q1"}) {
		t.Errorf("question order = %v", got)
	}
	// Display slot d shows canonical option perm[d].
	if got := view.Questions[1].Options; !reflect.DeepEqual(got, []string{"heap", "stack", "queue"}) {
		t.Errorf("options = %v", got)
	}
}

func TestBuildViewOmitsAnswerKeyAndHiddenCases(t *testing.T) {
	t.Parallel()

	quiz := testQuiz()
	assignment := domain.ShuffleAssignment{
		StudentID:   "student-1",
		QuizID:      quiz.ID,
		QuestionIDs: []string{"q1", "q2"},
	}

	view, err := BuildView(quiz, &assignment)
	if err != nil {
		t.Fatal(err)
	}

	code := view.Questions[1]
	if len(code.SampleCases) != 1 || code.SampleCases[0].IsHidden {
		t.Errorf("SampleCases = %+v", code.SampleCases)
	}

	encoded, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	// "5 5" is the hidden case input; the answer key must not appear either.
	for _, leak := range []string{"correctAnswerIndex", "CorrectAnswerIndex", "5 5"} {
		if strings.Contains(string(encoded), leak) {
			t.Errorf("payload leaks %q: %s", leak, encoded)
		}
	}
}

func TestBuildViewIdentityWithoutPermutation(t *testing.T) {
	t.Parallel()

	quiz := testQuiz()
	assignment := domain.ShuffleAssignment{QuestionIDs: []string{"q1"}}

	view, err := BuildView(quiz, &assignment)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.Questions[0].Options; !reflect.DeepEqual(got, quiz.Questions[0].Options) {
		t.Errorf("options = %v, want canonical order", got)
	}
}

func TestBuildViewUnknownQuestion(t *testing.T) {
	t.Parallel()

	quiz := testQuiz()
	assignment := domain.ShuffleAssignment{QuestionIDs: []string{"ghost"}}

	if _, err := BuildView(quiz, &assignment); err == nil {
		t.Fatal("expected error for unknown question")
	}
}

func newTestRouter(quiz *domain.Quiz, assignment domain.ShuffleAssignment) *mux.Router {
	quizzes := map[string]*domain.Quiz{}
	if quiz != nil {
		quizzes[quiz.ID] = quiz
	}
	h := NewHandler(&fakeQuizRepo{quizzes: quizzes}, &fixedSelection{assignment: assignment}, nopLogger{})
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func TestGetAssignment(t *testing.T) {
	t.Parallel()

	quiz := testQuiz()
	assignment := domain.ShuffleAssignment{
		StudentID:   "student-1",
		QuizID:      quiz.ID,
		QuestionIDs: []string{"q1", "q2"},
	}
	router := newTestRouter(quiz, assignment)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/quiz-1/assignment?studentId=student-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var view AssignmentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.QuizID != "quiz-1" || len(view.Questions) != 2 {
		t.Errorf("view = %+v", view)
	}
}

func TestGetAssignmentRequiresStudentID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(testQuiz(), domain.ShuffleAssignment{})

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/quiz-1/assignment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetAssignmentQuizNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, domain.ShuffleAssignment{})

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes/missing/assignment?studentId=student-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
