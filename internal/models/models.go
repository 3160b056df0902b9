package models

import (
	"strconv"
	"time"
)

type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	CreateTime   time.Time
	UpdateTime   time.Time
}

func (u User) Name() string {
	return "users/" + Int64ToString(u.ID)
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleHost
}

const (
	RoleAdmin = "ADMIN"
	RoleHost  = "HOST"
	RoleUser  = "USER"
)

type PersonalAccessToken struct {
	ID          int64
	UserID      int64
	TokenPrefix string
	TokenHash   string
	Description string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	ExpiresAt   *time.Time
	RevokedAt   *time.Time
}

// MetadataKind names a tag vocabulary that can carry editor comments.
type MetadataKind string

const (
	MetadataPublishers MetadataKind = "publishers"
	MetadataTopics     MetadataKind = "topics"
	MetadataConcepts   MetadataKind = "concepts"
	MetadataPatterns   MetadataKind = "patterns"
)

func (k MetadataKind) IsValid() bool {
	switch k {
	case MetadataPublishers, MetadataTopics, MetadataConcepts, MetadataPatterns:
		return true
	}
	return false
}

type Metadata struct {
	Kind    MetadataKind `json:"kind"`
	Name    string       `json:"name"`
	Comment string       `json:"comment"`
}

func Int64ToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
