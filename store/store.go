// Package store defines the announcement bot's persistent records and
// the repository interfaces its services depend on. Backends live in
// the jsonfile and postgres subpackages.
package store

import (
	"errors"
	"time"
)

// UserStatus tracks where a registered user is in the approval workflow.
type UserStatus string

const (
	// StatusPending marks a user awaiting admin review.
	StatusPending UserStatus = "pending"
	// StatusApproved marks a user cleared to receive broadcasts.
	StatusApproved UserStatus = "approved"
	// StatusRejected marks a user denied by an admin.
	StatusRejected UserStatus = "rejected"
)

// Group is a registered broadcast destination chat.
type Group struct {
	ID    int64    `json:"id" db:"id"`
	Title string   `json:"title" db:"title"`
	Tags  []string `json:"tags" db:"-"`
	// ThreadID points announcements at a forum topic; nil means General.
	ThreadID      *int      `json:"threadId" db:"thread_id"`
	AddedAt       time.Time `json:"addedAt" db:"added_at"`
	AddedManually bool      `json:"addedManually,omitempty" db:"added_manually"`
}

// HasTag reports whether the group carries the given tag.
func (g Group) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// User is a registered end-user recipient.
type User struct {
	ID           int64      `json:"id" db:"id"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	Patronymic   string     `json:"patronymic" db:"patronymic"`
	Subject      string     `json:"subject" db:"subject"`
	Status       UserStatus `json:"status" db:"status"`
	RegisteredAt time.Time  `json:"registeredAt" db:"registered_at"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty" db:"approved_at"`
	ApprovedBy   *int64     `json:"approvedBy,omitempty" db:"approved_by"`
	RejectedAt   *time.Time `json:"rejectedAt,omitempty" db:"rejected_at"`
	RejectedBy   *int64     `json:"rejectedBy,omitempty" db:"rejected_by"`
}

// FullName renders "LastName FirstName Patronymic" for listings.
func (u User) FullName() string {
	return u.LastName + " " + u.FirstName + " " + u.Patronymic
}

// Template is a named reusable announcement body.
type Template struct {
	Name string `json:"name" db:"name"`
	Text string `json:"text" db:"text"`
}

// UserStats aggregates users by status.
type UserStats struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

var (
	// ErrGroupExists is returned when adding a group that is already registered.
	ErrGroupExists = errors.New("group already exists")
	// ErrGroupNotFound is returned for operations on unknown groups.
	ErrGroupNotFound = errors.New("group not found")
	// ErrTagExists is returned when a group already carries the tag.
	ErrTagExists = errors.New("tag already exists")
	// ErrTagNotFound is returned when removing a tag the group does not carry.
	ErrTagNotFound = errors.New("tag not found")
	// ErrUserExists is returned when a user registers twice.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned for operations on unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrTemplateNotFound is returned for operations on unknown templates.
	ErrTemplateNotFound = errors.New("template not found")
)

// GroupStore persists broadcast destination groups.
type GroupStore interface {
	List() ([]Group, error)
	ByID(id int64) (Group, bool, error)
	Add(g Group) error
	Remove(id int64) error
	AddTag(id int64, tag string) error
	RemoveTag(id int64, tag string) error
	SetThreadID(id int64, threadID *int) error
	AllTags() ([]string, error)
}

// UserStore persists registered users and their approval status.
type UserStore interface {
	List() ([]User, error)
	ByID(id int64) (User, bool, error)
	Add(u User) error
	SetStatus(id int64, status UserStatus, adminID int64) error
	Delete(id int64) error
	Pending() ([]User, error)
	Approved() ([]User, error)
	Rejected() ([]User, error)
	ApprovedBySubject(subject string) ([]User, error)
	Subjects() ([]string, error)
	Stats() (UserStats, error)
}

// TemplateStore persists reusable announcement templates.
type TemplateStore interface {
	All() ([]Template, error)
	Get(name string) (Template, bool, error)
	Save(t Template) error
	Delete(name string) error
	Exists(name string) (bool, error)
}

// AdminStore persists the admin ID set for the registry.
type AdminStore interface {
	Load() ([]int64, error)
	Save(ids []int64) error
}
