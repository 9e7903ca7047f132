package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/security"
	"github.com/inwren/auth-service/internal/storage"
)

// accessTokenFor выпускает валидный access-токен для пользователя напрямую
// через кодек сервиса.
func accessTokenFor(t *testing.T, svc *Service, user *models.User) string {
	t.Helper()

	token, _, err := svc.codec.EncodeAccess(user.ID.String(), map[string]any{
		"email": user.Email,
		"tier":  user.Tier,
	}, time.Now().UTC())
	require.NoError(t, err)

	return token
}

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	token := accessTokenFor(t, svc, user)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	got, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.Email, got.Email)
}

func TestAuthenticate_Garbage(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

// Refresh-токен не проходит authorization gate.
func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	refresh, err := svc.codec.EncodeRefresh(uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_UserGone(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	token := accessTokenFor(t, svc, user)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)

	_, err := svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequireSuperuser(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	require.ErrorIs(t, svc.RequireSuperuser(user), ErrPermissionDenied)
	require.ErrorIs(t, svc.RequireSuperuser(nil), ErrPermissionDenied)

	user.IsSuperuser = true
	require.NoError(t, svc.RequireSuperuser(user))
}

func TestUpdateProfile_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")
	newEmail := "Renamed@Example.com"
	fullName := "New Name"

	st.EXPECT().UpdateUser(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, upd storage.UserUpdate) (*models.User, error) {
			require.NotNil(t, upd.Email)
			require.Equal(t, newEmail, *upd.Email)
			require.NotNil(t, upd.FullName)
			require.Equal(t, fullName, *upd.FullName)
			require.Nil(t, upd.IsActive)
			require.Nil(t, upd.IsSuperuser)
			require.Nil(t, upd.Tier)

			out := *user
			out.Email = *upd.Email
			out.FullName = *upd.FullName
			return &out, nil
		})

	got, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{
		Email:    &newEmail,
		FullName: &fullName,
	})
	require.NoError(t, err)
	require.Equal(t, newEmail, got.Email)
}

func TestUpdateProfile_NoFields(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	email := "taken@example.com"

	st.EXPECT().UpdateUser(gomock.Any(), id, gomock.Any()).Return(nil, storage.ErrAlreadyExists)

	_, err := svc.UpdateProfile(context.Background(), id, ProfileUpdate{Email: &email})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangePassword_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().UpdatePasswordHash(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, hash string) error {
			require.True(t, security.VerifySecret("brand-new-pass", hash))
			return nil
		})
	// Смена пароля отзывает выданный refresh-токен.
	st.EXPECT().SetRefreshTokenHash(gomock.Any(), user.ID, gomock.Nil()).Return(nil)

	err := svc.ChangePassword(context.Background(), user.ID, "strongpass1", "brand-new-pass")
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "wrongpass1", "brand-new-pass")
	require.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestChangePassword_Same(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "strongpass1", "strongpass1")
	require.ErrorIs(t, err, ErrSamePassword)
}

func TestChangePassword_Weak(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "strongpass1", "short")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestDeactivateUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := activeUser(t, "strongpass1")

	st.EXPECT().UpdateUser(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, upd storage.UserUpdate) (*models.User, error) {
			require.NotNil(t, upd.IsActive)
			require.False(t, *upd.IsActive)

			out := *user
			out.IsActive = false
			return &out, nil
		})
	// Деактивация очищает слот refresh-токена.
	st.EXPECT().SetRefreshTokenHash(gomock.Any(), user.ID, gomock.Nil()).Return(nil)

	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID))
}

func TestDeactivateUser_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()

	st.EXPECT().UpdateUser(gomock.Any(), id, gomock.Any()).Return(nil, storage.ErrNotFound)

	require.ErrorIs(t, svc.DeactivateUser(context.Background(), id), ErrNotFound)
}

func TestAvatarOps_Disabled(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.AvatarUploadURL(context.Background(), uuid.New(), "image/png", 1024)
	require.ErrorIs(t, err, ErrAvatarsDisabled)

	_, err = svc.ConfirmAvatarUpload(context.Background(), uuid.New(), "avatars/x/y.png")
	require.ErrorIs(t, err, ErrAvatarsDisabled)
}
