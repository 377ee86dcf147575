package models

import (
	"strings"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const (
	PaymentPending    = "pending"
	PaymentInProgress = "in-progress"
	PaymentCompleted  = "completed"
)

const (
	MaterialQuiz        = "quiz"
	MaterialLesson      = "lesson"
	MaterialLiveSession = "live-session"
)

type User struct {
	ID        string    `json:"id" dynamodbav:"id" bson:"_id"`
	Email     string    `json:"email" dynamodbav:"email" bson:"email"`
	Password  string    `json:"-" dynamodbav:"password" bson:"password"`
	Name      string    `json:"name" dynamodbav:"name" bson:"name"`
	Role      string    `json:"role" dynamodbav:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt" bson:"createdAt"`
}

// Registration links a learner to a course and tracks its payment.
type Registration struct {
	ID            string    `json:"id" dynamodbav:"id" bson:"_id"`
	Email         string    `json:"email" dynamodbav:"email" bson:"email"`
	CourseID      string    `json:"courseId" dynamodbav:"courseId" bson:"courseId"`
	PaymentStatus string    `json:"paymentStatus" dynamodbav:"PaymentStatus" bson:"PaymentStatus"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" dynamodbav:"updatedAt" bson:"updatedAt"`
}

// Progress marks a course material as completed by a learner.
// Records written by this service use ProgressID(Email, MaterialID) as ID;
// older records carry random ids.
type Progress struct {
	ID          string    `json:"id" dynamodbav:"id" bson:"_id"`
	Email       string    `json:"email" dynamodbav:"email" bson:"email"`
	CourseID    string    `json:"courseId" dynamodbav:"courseId" bson:"courseId"`
	MaterialID  string    `json:"materialId" dynamodbav:"materialId" bson:"materialId"`
	CompletedAt time.Time `json:"completedAt" dynamodbav:"completedAt" bson:"completedAt"`
}

// ProgressID derives the storage key of a progress record.
func ProgressID(email, materialID string) string {
	return NormalizeEmail(email) + "#" + materialID
}

type Question struct {
	ID            string   `json:"id" dynamodbav:"id" bson:"id"`
	Text          string   `json:"text" dynamodbav:"text" bson:"text"`
	Options       []string `json:"options" dynamodbav:"options" bson:"options"`
	CorrectOption int      `json:"correctOption" dynamodbav:"correctOption" bson:"correctOption"`
}

// Material is a course item: a lesson, a quiz or a scheduled live session.
type Material struct {
	ID              string     `json:"id" dynamodbav:"id" bson:"_id"`
	CourseID        string     `json:"courseId" dynamodbav:"courseId" bson:"courseId"`
	Type            string     `json:"type" dynamodbav:"type" bson:"type"`
	Title           string     `json:"title" dynamodbav:"title" bson:"title"`
	Description     string     `json:"description,omitempty" dynamodbav:"description,omitempty" bson:"description,omitempty"`
	Questions       []Question `json:"questions,omitempty" dynamodbav:"questions,omitempty" bson:"questions,omitempty"`
	TimeLimit       int        `json:"timeLimit,omitempty" dynamodbav:"timeLimit,omitempty" bson:"timeLimit,omitempty"`
	PassingScore    int        `json:"passingScore,omitempty" dynamodbav:"passingScore,omitempty" bson:"passingScore,omitempty"`
	MaxAttempts     int        `json:"maxAttempts,omitempty" dynamodbav:"maxAttempts,omitempty" bson:"maxAttempts,omitempty"`
	StartsAt        *time.Time `json:"startsAt,omitempty" dynamodbav:"startsAt,omitempty" bson:"startsAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty" dynamodbav:"durationMinutes,omitempty" bson:"durationMinutes,omitempty"`
	MeetingURL      string     `json:"meetingUrl,omitempty" dynamodbav:"meetingUrl,omitempty" bson:"meetingUrl,omitempty"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
