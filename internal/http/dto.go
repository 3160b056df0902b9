package http

import (
	"time"

	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/sheets"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type getCurrentUserResponse struct {
	User apiUser `json:"user"`
}

type signInRequest struct {
	PasswordCredentials *signInPasswordCredentials `json:"passwordCredentials"`
}

type signInPasswordCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminSignInRequest struct {
	Password string `json:"password"`
}

type signInResponse struct {
	User                 apiUser `json:"user"`
	AccessToken          string  `json:"accessToken"`
	AccessTokenExpiresAt string  `json:"accessTokenExpiresAt,omitempty"`
}

type createUserRequest struct {
	User createUserBody `json:"user"`
}

type createUserBody struct {
	Role        string `json:"role"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type apiUser struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	CreateTime  string `json:"createTime,omitempty"`
	UpdateTime  string `json:"updateTime,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Questions int64  `json:"questions"`
}

type syncStatusResponse struct {
	Enabled      bool           `json:"enabled"`
	LastSyncTime string         `json:"lastSyncTime,omitempty"`
	Status       *sheets.Status `json:"status,omitempty"`
}

type metadataRequest struct {
	Comment string `json:"comment"`
}

type listMetadataResponse struct {
	Items []models.Metadata `json:"items"`
}

type clearResponse struct {
	Cleared bool `json:"cleared"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatMaybeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatTime(t)
}
