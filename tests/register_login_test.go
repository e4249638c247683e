package tests

import (
	"testing"
	"time"

	"storyslip/tests/suite"

	"github.com/brianvoe/gofakeit"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passDefaultLen = 10

func TestRegisterLogin_HappyPath(t *testing.T) {
	ctx, st := suite.New(t)

	email := gofakeit.Email()
	pass := randomFakePassword()
	name := gofakeit.FirstName()

	userID, err := st.UserService.RegisterNewUser(ctx, name, email, pass)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	loginTime := time.Now()

	token, err := st.UserService.Login(ctx, email, pass)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	tokenParsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(st.Cfg.TokenSecret), nil
	})
	require.NoError(t, err)

	claims, ok := tokenParsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, userID.String(), claims["uid"].(string))
	assert.Equal(t, email, claims["email"].(string))

	const deltaSeconds = 1
	assert.InDelta(t, loginTime.Add(st.Cfg.TokenTTL).Unix(), claims["exp"].(float64), deltaSeconds)
}

func TestRegisterLogin_DuplicateRegistration(t *testing.T) {
	ctx, st := suite.New(t)

	email := gofakeit.Email()
	pass := randomFakePassword()

	_, err := st.UserService.RegisterNewUser(ctx, gofakeit.FirstName(), email, pass)
	require.NoError(t, err)

	_, err = st.UserService.RegisterNewUser(ctx, gofakeit.FirstName(), email, randomFakePassword())
	assert.Error(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx, st := suite.New(t)

	email := gofakeit.Email()
	pass := randomFakePassword()

	_, err := st.UserService.RegisterNewUser(ctx, gofakeit.FirstName(), email, pass)
	require.NoError(t, err)

	_, err = st.UserService.Login(ctx, email, randomFakePassword())
	assert.Error(t, err)
}

func randomFakePassword() string {
	return gofakeit.Password(true, true, true, true, false, passDefaultLen)
}
