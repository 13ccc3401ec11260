package domain

import (
	"context"
	"time"
)

// UserRepository defines data access for both user variants
type UserRepository interface {
	SaveUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, bool)
	UpdateUserProfile(ctx context.Context, id string, partial map[string]any) (*User, error)
	GetUserByCredentials(ctx context.Context, email, password string) (*User, bool)
	GetGymUserByBusinessName(ctx context.Context, name string) (*User, bool)
	ListUsers(ctx context.Context, role Role) []*User
	ListGymClients(ctx context.Context, gymID string) []*User
	AssignClientToGym(ctx context.Context, clientID, gymID string) error
	RecordAttendance(ctx context.Context, clientID string, day time.Time) (*User, error)
	SetPaymentUpToDate(ctx context.Context, clientID string, upToDate bool) error
}

// ClassRepository defines data access for gym-scoped class catalogs
type ClassRepository interface {
	GetGymClasses(ctx context.Context, gymID string) []Class
	GetGymClass(ctx context.Context, gymID string, classID int64) (*Class, bool)
	AddGymClass(ctx context.Context, gymID string, class Class) (*Class, error)
	UpdateGymClass(ctx context.Context, gymID string, classID int64, class Class) error
	DeleteGymClass(ctx context.Context, gymID string, classID int64) error
	GetAvailableClasses(ctx context.Context) []AvailableClass
}

// EnrollmentRepository defines data access for enrollments in both schemes
type EnrollmentRepository interface {
	SaveUserClasses(ctx context.Context, userID string, list []Enrollment) error
	GetUserClasses(ctx context.Context, userID string) []Enrollment
	Enroll(ctx context.Context, clientID, gymID string, classID int64, slots []string) (*Enrollment, error)
	ListEnrollments(ctx context.Context, clientID string) []Enrollment
	GetClientEnrolledClassesWithDetails(ctx context.Context, clientID string) []EnrolledClass
	CancelEnrollment(ctx context.Context, clientID string, classID int64, gymID string) error
	GetGymEnrollments(ctx context.Context, gymID string) []Enrollment
	CountClassEnrollments(ctx context.Context, gymID string, classID int64) int
}

// PaymentRepository defines data access for quotas and payment history
type PaymentRepository interface {
	GetGymQuotaSettings(ctx context.Context, gymID string) (*QuotaSettings, bool)
	UpdateGymQuotaSettings(ctx context.Context, gymID string, q QuotaSettings) error
	GetUserPaymentInfo(ctx context.Context, userID string) PaymentInfo
	ProcessPayment(ctx context.Context, userID string, in PaymentInput) (*PaymentResult, error)
	RecordPendingPayment(ctx context.Context, userID string, in PaymentInput) (*PaymentRecord, error)
	CompletePayment(ctx context.Context, gymID, paymentID string) (*PaymentRecord, error)
	GetGymPaymentHistory(ctx context.Context, gymID string) []PaymentRecord
	GetClientPaymentHistory(ctx context.Context, gymID, clientID string) []PaymentRecord
	GetGymPaymentsSummary(ctx context.Context, gymID string) PaymentsSummary
	ListGymsWithPayments(ctx context.Context) []string
}

// SessionStore defines the device login state
type SessionStore interface {
	SaveSession(ctx context.Context, user *User, rememberMe bool) (*Session, error)
	GetSession(ctx context.Context) (*Session, bool)
	GetCurrentUser(ctx context.Context) (*User, bool)
	RefreshCurrentUser(ctx context.Context, user *User) error
	AttachToken(ctx context.Context, token string, expiresAt time.Time) error
	ShouldRestore(ctx context.Context) bool
	ClearSession(ctx context.Context) error
}

// PreferenceStore defines UI preference persistence
type PreferenceStore interface {
	GetDarkMode(ctx context.Context, userID string) bool
	SetDarkMode(ctx context.Context, userID string, dark bool) error
	GetStopwatch(ctx context.Context, userID string) (*StopwatchState, bool)
	SaveStopwatch(ctx context.Context, userID string, s StopwatchState) error
	ClearStopwatch(ctx context.Context, userID string) error
}

// PaymentGateway creates hosted checkouts with an external provider
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// CheckoutRequest is what the gateway needs to start a checkout
type CheckoutRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Reference   string  `json:"reference,omitempty"`
}
