package api

import (
	"context"

	"github.com/PHJ369906/aox-miniapp/internal/connection"
	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
)

// PasswordLoginRequest is the account/password login body.
type PasswordLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SmsLoginRequest is the SMS code login body.
type SmsLoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SendSmsCodeRequest asks for a login code.
type SendSmsCodeRequest struct {
	Phone string `json:"phone"`
}

// WxLoginRequest is the WeChat login body.
type WxLoginRequest struct {
	Code          string `json:"code"`
	EncryptedData string `json:"encryptedData,omitempty"`
	IV            string `json:"iv,omitempty"`
	UserInfo      any    `json:"userInfo,omitempty"`
}

// LoginUser is the abbreviated user returned with a login.
type LoginUser struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Phone    string `json:"phone"`
}

// Profile converts the login user into a session profile.
func (u *LoginUser) Profile() *domain.UserProfile {
	if u == nil {
		return nil
	}
	return &domain.UserProfile{
		UserID:   u.UserID,
		Nickname: u.Nickname,
		Avatar:   u.Avatar,
		Phone:    u.Phone,
	}
}

// LoginResponse is returned by every login endpoint.
type LoginResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	User         *LoginUser `json:"user,omitempty"`
}

// BindPhoneRequest binds a phone number to the account.
type BindPhoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// UserAPI covers authentication and the user profile.
type UserAPI struct {
	e *connection.Engine
}

// PasswordLogin logs in with account and password.
func (a *UserAPI) PasswordLogin(ctx context.Context, req PasswordLoginRequest) (*LoginResponse, error) {
	return connection.Post[*LoginResponse](ctx, a.e, Prefix+"/auth/login/password", req)
}

// SmsLogin logs in with a phone number and SMS code.
func (a *UserAPI) SmsLogin(ctx context.Context, req SmsLoginRequest) (*LoginResponse, error) {
	return connection.Post[*LoginResponse](ctx, a.e, Prefix+"/auth/login/sms", req)
}

// SendSmsCode requests a login code.
func (a *UserAPI) SendSmsCode(ctx context.Context, req SendSmsCodeRequest) error {
	_, err := connection.Post[struct{}](ctx, a.e, Prefix+"/auth/sms/send", req)
	return err
}

// WxLogin logs in with a WeChat authorization code.
func (a *UserAPI) WxLogin(ctx context.Context, req WxLoginRequest) (*LoginResponse, error) {
	return connection.Post[*LoginResponse](ctx, a.e, Prefix+"/auth/login/wechat", req)
}

// GetUserInfo returns the current user's profile.
func (a *UserAPI) GetUserInfo(ctx context.Context) (*domain.UserProfile, error) {
	return connection.Get[*domain.UserProfile](ctx, a.e, Prefix+"/user/info", nil)
}

// FetchProfile satisfies service.ProfileFetcher.
func (a *UserAPI) FetchProfile(ctx context.Context) (*domain.UserProfile, error) {
	return a.GetUserInfo(ctx)
}

// UpdateUserInfo sends a partial profile; only set fields are applied.
func (a *UserAPI) UpdateUserInfo(ctx context.Context, partial map[string]any) error {
	_, err := connection.Post[struct{}](ctx, a.e, Prefix+"/user/update", partial)
	return err
}

// BindPhone binds a phone number to the account.
func (a *UserAPI) BindPhone(ctx context.Context, req BindPhoneRequest) error {
	_, err := connection.Post[struct{}](ctx, a.e, Prefix+"/user/bind-phone", req)
	return err
}
