package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

type quizResult struct {
	Score   int  `json:"score"`
	Total   int  `json:"total"`
	Percent int  `json:"percent"`
	Passed  bool `json:"passed"`
}

// gradeQuiz scores answers against the answer key. Unanswered questions
// count as wrong. An empty quiz never passes.
func gradeQuiz(m *models.Material, answers map[string]int) quizResult {
	res := quizResult{Total: len(m.Questions)}
	for _, q := range m.Questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectOption {
			res.Score++
		}
	}
	if res.Total > 0 {
		res.Percent = (res.Score*100 + res.Total/2) / res.Total
		res.Passed = res.Percent >= m.PassingScore
	}
	return res
}

// loadQuiz answers 404 itself when id is not a quiz.
func (s *Server) loadQuiz(ctx context.Context, w http.ResponseWriter, r *http.Request, id string) (*models.Material, bool) {
	m, err := s.store.Material(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && m.Type != models.MaterialQuiz) {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, "load quiz", err)
		return nil, false
	}
	return m, true
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	m, ok := s.loadQuiz(ctx, w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	writeOK(w, http.StatusOK, envelope{"quiz": newQuizResp(m)})
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req submitQuizReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	m, ok := s.loadQuiz(ctx, w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	res := gradeQuiz(m, req.Answers)
	body := envelope{
		"score":   res.Score,
		"total":   res.Total,
		"percent": res.Percent,
		"passed":  res.Passed,
	}

	if res.Passed {
		already, err := s.markComplete(ctx, u.Email, m.CourseID, m.ID)
		if err != nil {
			s.serverError(w, r, "mark quiz complete", err)
			return
		}
		body["alreadyCompleted"] = already
	}

	writeOK(w, http.StatusOK, body)
}
