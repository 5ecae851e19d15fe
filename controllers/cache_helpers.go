package controllers

import (
	"context"

	"github.com/BeckettFrey/RodRoyale/cache"
)

func invalidateLeaderboardCache() {
	_ = cache.DeleteByPrefix(context.Background(), "leaderboard:")
}
