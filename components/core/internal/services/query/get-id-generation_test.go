package query

import (
	"context"
	"testing"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/postgres/generation"
	redisadapter "github.com/GrimoireLabs/grimoire/components/core/internal/adapters/redis"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGetGenerationByID_CacheHitSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generationRepo := generation.NewMockRepository(ctrl)
	redisRepo := redisadapter.NewMockRedisRepository(ctrl)

	uc := &UseCase{
		GenerationRepo: generationRepo,
		RedisRepo:      redisRepo,
	}

	id := pkg.GenerateUUIDv7()
	cached := &mmodel.GenerationProjection{ID: id, Status: cn.StatusRunning, CheckAfterMs: 2000}

	redisRepo.EXPECT().GetProjection(gomock.Any(), id).Return(cached, nil)

	projection, err := uc.GetGenerationByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, cached, projection)
}

func TestGetGenerationByID_NonTerminalCachedWithHint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generationRepo := generation.NewMockRepository(ctrl)
	redisRepo := redisadapter.NewMockRedisRepository(ctrl)

	uc := &UseCase{
		GenerationRepo: generationRepo,
		RedisRepo:      redisRepo,
	}

	id := pkg.GenerateUUIDv7()

	redisRepo.EXPECT().GetProjection(gomock.Any(), id).Return(nil, nil)

	generationRepo.EXPECT().Find(gomock.Any(), id).
		Return(&mmodel.Generation{ID: id, Status: cn.StatusRunning}, nil)

	redisRepo.EXPECT().CacheProjection(gomock.Any(), gomock.Any(), projectionTTL).Return(nil)

	projection, err := uc.GetGenerationByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, cn.StatusRunning, projection.Status)
	assert.Equal(t, int64(2000), projection.CheckAfterMs)
}

func TestGetGenerationByID_TerminalIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generationRepo := generation.NewMockRepository(ctrl)
	redisRepo := redisadapter.NewMockRedisRepository(ctrl)

	uc := &UseCase{
		GenerationRepo: generationRepo,
		RedisRepo:      redisRepo,
	}

	id := pkg.GenerateUUIDv7()

	redisRepo.EXPECT().GetProjection(gomock.Any(), id).Return(nil, nil)

	generationRepo.EXPECT().Find(gomock.Any(), id).
		Return(&mmodel.Generation{ID: id, Status: cn.StatusCompleted}, nil)

	projection, err := uc.GetGenerationByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, cn.StatusCompleted, projection.Status)
	assert.Zero(t, projection.CheckAfterMs)
}
