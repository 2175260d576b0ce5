package auth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"AginMusic/config"
	"AginMusic/logger"
	"AginMusic/model"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// DecodePassword 解析 Subsonic 的 p 参数，支持 "enc:<hex>" 形式。
// 非法的 hex 原样返回，交给校验器判定失败
func DecodePassword(p string) string {
	const prefix = "enc:"
	if !strings.HasPrefix(p, prefix) {
		return p
	}
	raw, err := hex.DecodeString(p[len(prefix):])
	if err != nil {
		return p
	}
	return string(raw)
}

// Authenticator 校验用户名和密码，不区分失败原因
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) bool
}

// StaticAuthenticator 只接受配置中的一个账号
type StaticAuthenticator struct {
	username     string
	password     string
	passwordHash string
}

// NewStaticAuthenticator passwordHash（bcrypt）优先于明文 password
func NewStaticAuthenticator(username, password, passwordHash string) *StaticAuthenticator {
	return &StaticAuthenticator{username: username, password: password, passwordHash: passwordHash}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return false
	}
	if a.passwordHash != "" {
		return CheckPasswordHash(password, a.passwordHash)
	}
	return a.password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}

// LoginAuthenticator 向外部登录接口 POST {"username","password"}，
// 仅当返回 {"ok": true} 时通过
type LoginAuthenticator struct {
	loginURL   string
	httpClient *http.Client
}

// NewLoginAuthenticator 创建外部登录接口校验器
func NewLoginAuthenticator(loginURL string, httpClient *http.Client) *LoginAuthenticator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LoginAuthenticator{loginURL: loginURL, httpClient: httpClient}
}

type loginRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (a *LoginAuthenticator) Authenticate(ctx context.Context, username, password string) bool {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL, bytes.NewReader(body))
	if err != nil {
		logger.Error("[Auth] 创建登录请求失败", logger.ErrorField(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		logger.Warn("[Auth] 登录接口请求失败", logger.String("url", a.loginURL), logger.ErrorField(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false
	}
	var result struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return false
	}
	return result.OK != nil && *result.OK
}

// UserStore 校验器需要的用户仓库方法
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// RepositoryAuthenticator 使用数据库中的 bcrypt 哈希校验
type RepositoryAuthenticator struct {
	users UserStore
}

// NewRepositoryAuthenticator 创建数据库账号校验器
func NewRepositoryAuthenticator(users UserStore) *RepositoryAuthenticator {
	return &RepositoryAuthenticator{users: users}
}

func (a *RepositoryAuthenticator) Authenticate(ctx context.Context, username, password string) bool {
	if username == "" || password == "" {
		return false
	}

	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		logger.Error("[Auth] 查询用户失败", logger.String("username", username), logger.ErrorField(err))
		return false
	}
	if user == nil || !user.Enabled {
		return false
	}
	return CheckPasswordHash(password, user.PasswordHash)
}

// New 根据配置创建校验器。users 仅在 AUTH_MODE=db 时使用
func New(cfg *config.Config, users UserStore) (Authenticator, error) {
	switch cfg.AuthMode {
	case config.AuthModeStatic:
		return NewStaticAuthenticator(cfg.SubsonicUsername, cfg.SubsonicPassword, cfg.SubsonicPasswordHash), nil
	case config.AuthModeLogin:
		return NewLoginAuthenticator(cfg.LoginURL, nil), nil
	case config.AuthModeDB:
		if users == nil {
			return nil, fmt.Errorf("AUTH_MODE=db requires a user repository")
		}
		return NewRepositoryAuthenticator(users), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
}
