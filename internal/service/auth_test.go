package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inwren/auth-service/internal/config"
	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/security"
	"github.com/inwren/auth-service/internal/storage"
	"github.com/inwren/auth-service/internal/tokens"
	"github.com/inwren/auth-service/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "auth-service",
		DefaultTier:     "free",
	}
}

func testCodec(t *testing.T) *tokens.Codec {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return tokens.NewCodec(tokens.Config{
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     "auth-service",
		AccessTTL:  30 * time.Second,
		RefreshTTL: 24 * time.Hour,
	})
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCodec(t), testCfg())

	return svc, st, ctrl
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()

	h, err := security.HashSecret(secret)
	require.NoError(t, err)

	return h
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()

	now := time.Now().UTC()

	return &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHash(t, password),
		IsActive:     true,
		Tier:         "free",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Регистр email сохраняется как введён: уникальность регистрозависимая.
	email := "User@Example.com"

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *models.User) (*models.User, error) {
			require.Equal(t, email, u.Email)
			require.True(t, u.IsActive)
			require.False(t, u.IsSuperuser)
			require.Equal(t, "free", u.Tier)
			// Пароль никогда не сохраняется открытым текстом.
			require.NotEqual(t, "strongpass1", u.PasswordHash)
			require.True(t, security.VerifySecret("strongpass1", u.PasswordHash))

			out := *u
			out.ID = uuid.New()
			out.CreatedAt = time.Now().UTC()
			out.UpdatedAt = out.CreatedAt
			return &out, nil
		})

	user, err := svc.RegisterUser(context.Background(), RegisterInput{
		Email:    email,
		Password: "strongpass1",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, email, user.Email)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "strongpass1",
	})
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegisterUser_WeakPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "short77",
	})
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterUser_EmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RegisterUser(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "",
	})
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestRegisterUser_EmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil, storage.ErrAlreadyExists)

	_, err := svc.RegisterUser(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "strongpass1",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().SetRefreshTokenHash(gomock.Any(), user.ID, gomock.Not(gomock.Nil())).Return(nil)
	st.EXPECT().SetLastLogin(gomock.Any(), user.ID).Return(nil)

	pair, err := svc.LoginUser(context.Background(), " user@example.com ", "strongpass1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)
	require.WithinDuration(t, time.Now().Add(30*time.Second), pair.AccessExpiresAt, 2*time.Second)
}

// Email регистрозависим: поиск идёт по точной строке, "A@x.com" и "a@x.com" —
// разные учётные записи.
func TestLoginUser_EmailCaseSensitive(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "User@Example.com").Return(nil, storage.ErrNotFound)

	_, err := svc.LoginUser(context.Background(), "User@Example.com", "strongpass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// Несуществующий email и неверный пароль дают один и тот же ответ.
func TestLoginUser_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)

	_, err := svc.LoginUser(context.Background(), "ghost@example.com", "strongpass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, err := svc.LoginUser(context.Background(), user.Email, "wrongpass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// Пароль проверяется до is_active: неактивная учётка с неверным паролем
// не раскрывает своё существование.
func TestLoginUser_Inactive(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	user.IsActive = false

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	_, err := svc.LoginUser(context.Background(), user.Email, "strongpass1")
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestLoginUser_SetLastLoginFailureIgnored(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().SetRefreshTokenHash(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	st.EXPECT().SetLastLogin(gomock.Any(), user.ID).Return(context.DeadlineExceeded)

	_, err := svc.LoginUser(context.Background(), user.Email, "strongpass1")
	require.NoError(t, err)
}

// loginAndCapture выполняет логин и возвращает пару токенов вместе с хэшем
// refresh-токена, записанным в слот.
func loginAndCapture(t *testing.T, svc *Service, st *mocks.MockStorage, user *models.User) (*models.TokenPair, string) {
	t.Helper()

	var slot string

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().SetRefreshTokenHash(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, hash *string) error {
			require.NotNil(t, hash)
			slot = *hash
			return nil
		})
	st.EXPECT().SetLastLogin(gomock.Any(), user.ID).Return(nil)

	pair, err := svc.LoginUser(context.Background(), user.Email, "strongpass1")
	require.NoError(t, err)

	return pair, slot
}

func TestRefreshToken_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, slot := loginAndCapture(t, svc, st, user)

	stored := *user
	stored.RefreshTokenHash = &slot

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(&stored, nil)
	st.EXPECT().RotateRefreshTokenHash(gomock.Any(), user.ID, slot, gomock.Any()).Return(true, nil)

	next, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
	require.NotEmpty(t, next.RefreshToken)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)
}

func TestRefreshToken_Garbage(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.RefreshToken(context.Background(), "definitely.not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

// Access-токен в refresh-операции отклоняется по claim type.
func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, _ := loginAndCapture(t, svc, st, user)

	_, err := svc.RefreshToken(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_UnknownUser(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, _ := loginAndCapture(t, svc, st, user)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)

	_, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrNotFound)
}

// Слот пуст (логаут/деактивация/смена пароля) — токен считается отозванным.
func TestRefreshToken_EmptySlot(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, _ := loginAndCapture(t, svc, st, user)

	stored := *user
	stored.RefreshTokenHash = nil

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(&stored, nil)

	_, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

// Предыдущий refresh-токен после ротации отклоняется, даже если его
// собственные подпись и срок ещё валидны.
func TestRefreshToken_RotatedTokenRevoked(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, _ := loginAndCapture(t, svc, st, user)

	// Слот уже содержит хэш другого (более нового) токена.
	otherHash := mustHash(t, "another-token-value")
	stored := *user
	stored.RefreshTokenHash = &otherHash

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(&stored, nil)

	_, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

// Проигравший конкурентную ротацию (CAS вернул false) получает отказ.
func TestRefreshToken_LostRace(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	pair, slot := loginAndCapture(t, svc, st, user)

	stored := *user
	stored.RefreshTokenHash = &slot

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(&stored, nil)
	st.EXPECT().RotateRefreshTokenHash(gomock.Any(), user.ID, slot, gomock.Any()).Return(false, nil)

	_, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenRevoked)
}
