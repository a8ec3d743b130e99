package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-club/pkg/jwt"
)

const testSecret = "secreto-de-pruebas"

func newAuth() *AuthUseCase {
	return NewAuthUseCase(memory.NewStore().Users(), JWTConfig{Secret: testSecret, ExpMinutes: 5, Issuer: "tienda-club"})
}

func TestRegisterYLogin(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: " Socio@Club.co ", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "socio@club.co", u.Email)
	assert.Equal(t, entity.RoleCliente, u.Role)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "socio@club.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "socio@club.co", Password: "clave-segura"})
	require.NoError(t, err)
	userID, role, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, entity.RoleCliente, role)

	me, err := uc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)
}

func TestLogin_Errores(t *testing.T) {
	uc := newAuth()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "a@club.co", Password: "clave-segura"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "a@club.co", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@club.co", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRegister_Validaciones(t *testing.T) {
	uc := newAuth()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "sin-arroba", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "b@club.co", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
