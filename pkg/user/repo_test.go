package user

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal/pkg/common"
	"portal/pkg/store"
)

var (
	email      = "pike@example.com"
	username   = "pike"
	password   = "sdfsdfsdf"
	salt       = "12345678"
	hashedPass = common.HashPass(password, salt)

	adminEmail  = "admin@communityportal.com"
	adminSecret = "admin123"
)

func TestRepoAdd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	repo := NewUserRepo(ctx, st)

	t.Run("should add new user", func(t *testing.T) {
		u, err := repo.Add(ctx, " "+email+" ", username, password)
		require.NoError(t, err)
		assert.NotEmpty(t, u.Id)
		assert.Equal(t, email, u.Email)
		assert.Equal(t, username, u.Username)
		assert.False(t, u.IsAdmin)
		assert.True(t, common.CheckPass(u.Password, password))
		assert.NotContains(t, string(u.Password), password)
	})

	t.Run("should persist snapshot", func(t *testing.T) {
		data, err := st.Load(ctx, store.SlotUsers)
		require.NoError(t, err)
		users := []*User{}
		require.NoError(t, json.Unmarshal(data, &users))
		assert.Len(t, users, 1)
		assert.Equal(t, email, users[0].Email)
	})

	t.Run("should reject taken email", func(t *testing.T) {
		_, err := repo.Add(ctx, email, "other", "pass")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Len(t, repo.GetAll(), 1)
	})

	t.Run("should reject empty fields", func(t *testing.T) {
		_, err := repo.Add(ctx, "  ", username, password)
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = repo.Add(ctx, "x@example.com", " ", password)
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = repo.Add(ctx, "x@example.com", username, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("should survive reload", func(t *testing.T) {
		reloaded := NewUserRepo(ctx, st)
		assert.True(t, reloaded.EmailExists(email))
		_, err := reloaded.GetByEmailAndPass(email, password)
		assert.NoError(t, err)
	})
}

func TestRepoAddSaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().Load(ctx, store.SlotUsers).Return(nil, nil)
	repo := NewUserRepo(ctx, mockStore)

	expectedErr := fmt.Errorf("disk_full")
	mockStore.EXPECT().Save(ctx, store.SlotUsers, gomock.Any()).Return(expectedErr)

	_, err := repo.Add(ctx, email, username, password)
	assert.ErrorIs(t, err, expectedErr)
	assert.False(t, repo.EmailExists(email))
}

func TestGetByEmailAndPass(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(ctx, store.NewMemory())
	added, err := repo.Add(ctx, email, username, password)
	require.NoError(t, err)

	t.Run("should return user", func(t *testing.T) {
		u, err := repo.GetByEmailAndPass(email, password)
		require.NoError(t, err)
		assert.Equal(t, added, u)
	})

	t.Run("should return error: bad password", func(t *testing.T) {
		_, err := repo.GetByEmailAndPass(email, "badpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("should return error: unknown email", func(t *testing.T) {
		_, err := repo.GetByEmailAndPass("nobody@example.com", password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	repo := NewUserRepo(ctx, st)

	first, err := repo.EnsureAdmin(ctx, adminEmail, adminSecret)
	require.NoError(t, err)
	assert.Equal(t, AdminId, first.Id)
	assert.Equal(t, AdminUsername, first.Username)
	assert.True(t, first.IsAdmin)

	second, err := repo.EnsureAdmin(ctx, adminEmail, adminSecret)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reloaded := NewUserRepo(ctx, st)
	third, err := reloaded.EnsureAdmin(ctx, adminEmail, adminSecret)
	require.NoError(t, err)
	assert.Equal(t, first.Id, third.Id)

	admins := 0
	for _, u := range reloaded.GetAll() {
		if u.IsAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestGetById(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(ctx, store.NewMemory())
	added, err := repo.Add(ctx, email, username, password)
	require.NoError(t, err)

	u, err := repo.GetById(added.Id)
	require.NoError(t, err)
	assert.Equal(t, added, u)

	_, err = repo.GetById("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetNonAdmin(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(ctx, store.NewMemory())
	_, err := repo.EnsureAdmin(ctx, adminEmail, adminSecret)
	require.NoError(t, err)
	u, err := repo.Add(ctx, email, username, password)
	require.NoError(t, err)

	assert.Equal(t, []*Public{u.Public()}, repo.GetNonAdmin())
	assert.Len(t, repo.GetAll(), 2)
}

func TestLoadFailSoft(t *testing.T) {
	ctx := context.Background()
	valid := &User{Id: "1", Email: email, Username: username, Password: hashedPass}

	cases := map[string]string{
		"malformed JSON":  `[{"id":`,
		"not a list":      `{"id":"1"}`,
		"null record":     `[null]`,
		"missing email":   `[{"id":"1","username":"pike"}]`,
		"duplicate id":    `[{"id":"1","email":"a@b","username":"a"},{"id":"1","email":"c@d","username":"c"}]`,
		"duplicate email": `[{"id":"1","email":"a@b","username":"a"},{"id":"2","email":"a@b","username":"c"}]`,
	}
	for name, snapshot := range cases {
		t.Run(name, func(t *testing.T) {
			st := store.NewMemory()
			require.NoError(t, st.Save(ctx, store.SlotUsers, []byte(snapshot)))
			assert.Empty(t, NewUserRepo(ctx, st).GetAll())
		})
	}

	t.Run("load error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockStore := store.NewMockStore(ctrl)
		mockStore.EXPECT().Load(ctx, store.SlotUsers).Return(nil, fmt.Errorf("mock_db_error"))
		assert.Empty(t, NewUserRepo(ctx, mockStore).GetAll())
	})

	t.Run("legacy snapshot layout", func(t *testing.T) {
		legacy := `[{"id":"1717000000000","email":"pike@example.com","username":"pike","password":"sdfsdfsdf","isAdmin":false}]`
		st := store.NewMemory()
		require.NoError(t, st.Save(ctx, store.SlotUsers, []byte(legacy)))

		repo := NewUserRepo(ctx, st)
		u, err := repo.GetByEmailAndPass(email, password)
		require.NoError(t, err)
		assert.Equal(t, "1717000000000", u.Id)
		assert.True(t, common.CheckPass(u.Password, password))

		data, err := st.Load(ctx, store.SlotUsers)
		require.NoError(t, err)
		assert.NotContains(t, string(data), `"sdfsdfsdf"`)
		assert.Contains(t, string(data), `"argon2id$`)

		reloaded, err := NewUserRepo(ctx, st).GetByEmailAndPass(email, password)
		require.NoError(t, err)
		assert.Equal(t, u, reloaded)
	})

	t.Run("legacy rewrite fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		legacy := `[{"id":"1","email":"pike@example.com","username":"pike","password":"sdfsdfsdf"}]`
		mockStore := store.NewMockStore(ctrl)
		mockStore.EXPECT().Load(ctx, store.SlotUsers).Return([]byte(legacy), nil)
		mockStore.EXPECT().Save(ctx, store.SlotUsers, gomock.Any()).Return(fmt.Errorf("mock_db_error"))

		u, err := NewUserRepo(ctx, mockStore).GetByEmailAndPass(email, password)
		require.NoError(t, err)
		assert.Equal(t, "1", u.Id)
	})

	t.Run("valid snapshot", func(t *testing.T) {
		data, err := json.Marshal([]*User{valid})
		require.NoError(t, err)
		st := store.NewMemory()
		require.NoError(t, st.Save(ctx, store.SlotUsers, data))
		repo := NewUserRepo(ctx, st)
		u, err := repo.GetByEmailAndPass(email, password)
		require.NoError(t, err)
		assert.Equal(t, valid, u)
	})
}
