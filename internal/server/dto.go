package server

import (
	"time"

	"learnhub/internal/models"
)

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func newUserResp(u *models.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type adminUserResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type updateRoleReq struct {
	Role string `json:"role"`
}

type createRegistrationReq struct {
	CourseID string `json:"courseId"`
}

type updateStatusReq struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type completeReq struct {
	CourseID   string `json:"courseId"`
	MaterialID string `json:"materialId"`
}

type quizQuestionResp struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// quizResp is a quiz as shown to learners, without the answer key.
type quizResp struct {
	ID           string             `json:"id"`
	CourseID     string             `json:"courseId"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	TimeLimit    int                `json:"timeLimit"`
	PassingScore int                `json:"passingScore"`
	MaxAttempts  int                `json:"maxAttempts"`
	Questions    []quizQuestionResp `json:"questions"`
}

func newQuizResp(m *models.Material) quizResp {
	qs := make([]quizQuestionResp, 0, len(m.Questions))
	for _, q := range m.Questions {
		qs = append(qs, quizQuestionResp{ID: q.ID, Text: q.Text, Options: q.Options})
	}
	return quizResp{
		ID:           m.ID,
		CourseID:     m.CourseID,
		Title:        m.Title,
		Description:  m.Description,
		TimeLimit:    m.TimeLimit,
		PassingScore: m.PassingScore,
		MaxAttempts:  m.MaxAttempts,
		Questions:    qs,
	}
}

type submitQuizReq struct {
	Answers map[string]int `json:"answers"`
}
