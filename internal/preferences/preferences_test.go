package preferences

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Postgres
// ==========================

func TestPostgresRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		want      models.Preference
		wantErr   error
		errSubstr string
	}{
		{
			name: "mixed encodings",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectNutrition)).WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"nutrition"}).
						AddRow(`{"protein": 1, "salt": "down", "fat": 0, "fiber": "sideways"}`))
			},
			want: models.Preference{"protein": models.DirectionUp, "salt": models.DirectionDown},
		},
		{
			name: "null nutrition",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectNutrition)).WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"nutrition"}).AddRow(nil))
			},
			want: models.Preference{},
		},
		{
			name: "unknown user",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectNutrition)).WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"nutrition"}))
			},
			wantErr: ErrUserNotFound,
		},
		{
			name: "query error",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectNutrition)).WithArgs("u1").
					WillReturnError(errors.New("connection reset"))
			},
			errSubstr: "connection reset",
		},
		{
			name: "malformed json",
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectNutrition)).WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"nutrition"}).AddRow(`{"protein":`))
			},
			errSubstr: "decode nutrition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setupMock(mock)

			got, err := NewPostgresRepository(db).Get(context.Background(), "u1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errSubstr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Cache
// ==========================

type stubRepository struct {
	calls int
	prefs models.Preference
	err   error
}

func (s *stubRepository) Get(context.Context, string) (models.Preference, error) {
	s.calls++
	return s.prefs, s.err
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	backing := &stubRepository{prefs: models.Preference{"protein": models.DirectionUp}}
	repo := NewCachedRepository(backing, rdb, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.calls)
	assert.True(t, mr.Exists(cacheKey("u1")))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("u1")))

	mr.FastForward(2 * time.Minute)
	_, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)

	require.NoError(t, repo.Invalidate(ctx, "u1"))
	assert.False(t, mr.Exists(cacheKey("u1")))
}

func TestCachedRepository_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	require.NoError(t, mr.Set(cacheKey("u1"), "not json"))

	backing := &stubRepository{prefs: models.Preference{"salt": models.DirectionDown}}
	repo := NewCachedRepository(backing, rdb, time.Minute, logger.NewTestLogger(t))

	got, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.Preference{"salt": models.DirectionDown}, got)
	assert.Equal(t, 1, backing.calls)
}

func TestCachedRepository_RedisDown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey("u1")).SetErr(errors.New("connection refused"))
	mock.ExpectSet(cacheKey("u1"), `{"protein":"up"}`, time.Minute).SetErr(errors.New("connection refused"))

	backing := &stubRepository{prefs: models.Preference{"protein": models.DirectionUp}}
	repo := NewCachedRepository(backing, rdb, time.Minute, logger.NewTestLogger(t))

	got, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, backing.prefs, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepository_BackingError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey("u1")).RedisNil()

	backing := &stubRepository{err: ErrUserNotFound}
	repo := NewCachedRepository(backing, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := repo.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
