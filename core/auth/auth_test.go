package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AginMusic/config"
	"AginMusic/model"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestDecodePassword(t *testing.T) {
	assert.Equal(t, "sesame", DecodePassword("enc:"+hex.EncodeToString([]byte("sesame"))))
	assert.Equal(t, "plain", DecodePassword("plain"))
	assert.Equal(t, "enc:zz", DecodePassword("enc:zz"))
}

func TestStaticAuthenticator(t *testing.T) {
	ctx := context.Background()

	a := NewStaticAuthenticator("admin", "pw", "")
	assert.True(t, a.Authenticate(ctx, "admin", "pw"))
	assert.False(t, a.Authenticate(ctx, "admin", "nope"))
	assert.False(t, a.Authenticate(ctx, "other", "pw"))
	assert.False(t, a.Authenticate(ctx, "", ""))

	hash, err := HashPassword("hashed")
	require.NoError(t, err)
	a = NewStaticAuthenticator("admin", "ignored", hash)
	assert.True(t, a.Authenticate(ctx, "admin", "hashed"))
	assert.False(t, a.Authenticate(ctx, "admin", "ignored"))
}

func TestLoginAuthenticator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case req.Username == "alice" && req.Password == "pw":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case req.Username == "truthy":
			_, _ = w.Write([]byte(`{"ok":"true"}`))
		case req.Username == "down":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"ok":false}`))
		}
	}))
	defer srv.Close()

	a := NewLoginAuthenticator(srv.URL+"/api/login", srv.Client())
	ctx := context.Background()
	assert.True(t, a.Authenticate(ctx, "alice", "pw"))
	assert.False(t, a.Authenticate(ctx, "alice", "bad"))
	assert.False(t, a.Authenticate(ctx, "truthy", "pw"), "ok must be the boolean true")
	assert.False(t, a.Authenticate(ctx, "down", "pw"))

	unreachable := NewLoginAuthenticator("http://127.0.0.1:1/api/login", nil)
	assert.False(t, unreachable.Authenticate(ctx, "alice", "pw"))
}

type fakeUsers map[string]*model.User

func (f fakeUsers) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if username == "broken" {
		return nil, errors.New("db down")
	}
	return f[username], nil
}

func TestRepositoryAuthenticator(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	users := fakeUsers{
		"bob":   {Username: "bob", PasswordHash: hash, Enabled: true},
		"carol": {Username: "carol", PasswordHash: hash, Enabled: false},
	}
	a := NewRepositoryAuthenticator(users)
	ctx := context.Background()

	assert.True(t, a.Authenticate(ctx, "bob", "pw"))
	assert.False(t, a.Authenticate(ctx, "bob", "x"))
	assert.False(t, a.Authenticate(ctx, "carol", "pw"), "disabled account")
	assert.False(t, a.Authenticate(ctx, "nobody", "pw"))
	assert.False(t, a.Authenticate(ctx, "broken", "pw"))
}

func TestNew(t *testing.T) {
	a, err := New(&config.Config{AuthMode: config.AuthModeStatic, SubsonicUsername: "u", SubsonicPassword: "p"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticAuthenticator{}, a)

	a, err = New(&config.Config{AuthMode: config.AuthModeLogin, LoginURL: "http://x"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LoginAuthenticator{}, a)

	_, err = New(&config.Config{AuthMode: config.AuthModeDB}, nil)
	assert.Error(t, err)

	a, err = New(&config.Config{AuthMode: config.AuthModeDB}, fakeUsers{})
	require.NoError(t, err)
	assert.IsType(t, &RepositoryAuthenticator{}, a)

	_, err = New(&config.Config{AuthMode: "ldap"}, nil)
	assert.Error(t, err)
}
