package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role discriminates the two user variants stored side by side in usersDB
type Role string

const (
	RoleClient Role = "client"
	RoleGym    Role = "gym"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleGym
}

// IDPrefix is prepended to generated ids so the id space stays unique across roles
func (r Role) IDPrefix() string {
	return string(r) + "-"
}

// ClientUser is a gym member
type ClientUser struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	Password          string   `json:"password"`
	Name              string   `json:"name"`
	WeeklyGoal        int      `json:"weeklyGoal"`
	Attendance        []string `json:"attendance"` // YYYY-MM-DD
	WeeklyStreak      int      `json:"weeklyStreak"`
	GymID             string   `json:"gymId,omitempty"`
	DNI               string   `json:"dni,omitempty"`
	IsPaymentUpToDate bool     `json:"isPaymentUpToDate"`
}

// GymUser is a gym owner account
type GymUser struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	BusinessName     string   `json:"businessName"`
	Address          string   `json:"address,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Description      string   `json:"description,omitempty"`
	Clients          []string `json:"clients"`
	Classes          []string `json:"classes"`
	SubscriptionPlan string   `json:"subscriptionPlan,omitempty"`
}

// User holds exactly one of Client or Gym. It serializes as the variant's
// JSON object with an extra "role" field.
type User struct {
	Client *ClientUser
	Gym    *GymUser
}

// NewClient wraps a ClientUser
func NewClient(c ClientUser) *User { return &User{Client: &c} }

// NewGym wraps a GymUser
func NewGym(g GymUser) *User { return &User{Gym: &g} }

// Role returns the variant tag, or "" for an empty User
func (u *User) Role() Role {
	switch {
	case u == nil:
		return ""
	case u.Client != nil:
		return RoleClient
	case u.Gym != nil:
		return RoleGym
	}
	return ""
}

func (u *User) ID() string {
	switch u.Role() {
	case RoleClient:
		return u.Client.ID
	case RoleGym:
		return u.Gym.ID
	}
	return ""
}

func (u *User) SetID(id string) {
	switch u.Role() {
	case RoleClient:
		u.Client.ID = id
	case RoleGym:
		u.Gym.ID = id
	}
}

func (u *User) Email() string {
	switch u.Role() {
	case RoleClient:
		return u.Client.Email
	case RoleGym:
		return u.Gym.Email
	}
	return ""
}

// PasswordHash returns the stored password field
func (u *User) PasswordHash() string {
	switch u.Role() {
	case RoleClient:
		return u.Client.Password
	case RoleGym:
		return u.Gym.Password
	}
	return ""
}

func (u *User) SetPasswordHash(hash string) {
	switch u.Role() {
	case RoleClient:
		u.Client.Password = hash
	case RoleGym:
		u.Gym.Password = hash
	}
}

// DisplayName is the client's name or the gym's business name
func (u *User) DisplayName() string {
	switch u.Role() {
	case RoleClient:
		return u.Client.Name
	case RoleGym:
		return u.Gym.BusinessName
	}
	return ""
}

// Sanitized returns a deep copy without the password, for API responses and the session blob
func (u *User) Sanitized() *User {
	cp := u.Clone()
	if cp != nil {
		cp.SetPasswordHash("")
	}
	return cp
}

// Clone deep-copies the user
func (u *User) Clone() *User {
	switch u.Role() {
	case RoleClient:
		c := *u.Client
		c.Attendance = append([]string(nil), u.Client.Attendance...)
		return &User{Client: &c}
	case RoleGym:
		g := *u.Gym
		g.Clients = append([]string(nil), u.Gym.Clients...)
		g.Classes = append([]string(nil), u.Gym.Classes...)
		return &User{Gym: &g}
	}
	return nil
}

// MarshalJSON flattens the active variant and adds the role tag
func (u User) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch u.Role() {
	case RoleClient:
		c := *u.Client
		if c.Attendance == nil {
			c.Attendance = []string{}
		}
		raw, err = json.Marshal(c)
	case RoleGym:
		g := *u.Gym
		if g.Clients == nil {
			g.Clients = []string{}
		}
		if g.Classes == nil {
			g.Classes = []string{}
		}
		raw, err = json.Marshal(g)
	default:
		return nil, ErrInvalidUser
	}
	if err != nil {
		return nil, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	obj["role"], _ = json.Marshal(u.Role())
	return json.Marshal(obj)
}

// UnmarshalJSON reads the role tag and decodes the matching variant. Records
// without a role are classified by shape: a businessName means a gym.
func (u *User) UnmarshalJSON(data []byte) error {
	var head struct {
		Role         Role   `json:"role"`
		BusinessName string `json:"businessName"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	role := head.Role
	if role == "" {
		role = RoleClient
		if strings.TrimSpace(head.BusinessName) != "" {
			role = RoleGym
		}
	}

	switch role {
	case RoleClient:
		var c ClientUser
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*u = User{Client: &c}
	case RoleGym:
		var g GymUser
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		*u = User{Gym: &g}
	default:
		return fmt.Errorf("unknown user role %q", role)
	}
	return nil
}

// NormalizeBusinessName is the comparison form used for business-name lookups
func NormalizeBusinessName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeEmail is the comparison form used for email lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
