package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BeckettFrey/RodRoyale/cache"
	"github.com/BeckettFrey/RodRoyale/models"
	httpctx "github.com/BeckettFrey/RodRoyale/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	metricBiggestCatch  = "biggest_catch"
	metricCatchCount    = "catch_count"
	metricAverageWeight = "average_weight"

	leaderboardWindow = 30 * 24 * time.Hour
)

func validMetric(value string) bool {
	switch value {
	case metricBiggestCatch, metricCatchCount, metricAverageWeight:
		return true
	}
	return false
}

// leaderboardStats aggregates one user's catches inside the rolling window.
type leaderboardStats struct {
	UserID              uint
	BiggestCatchWeight  float64
	BiggestCatchSpecies string
	CatchCount          int64
	sumWeight           float64
	EarliestCatch       time.Time
	TotalCatches        int64
}

func (s *leaderboardStats) averageWeight() float64 {
	if s.CatchCount == 0 {
		return 0
	}
	return math.Round(s.sumWeight/float64(s.CatchCount)*100) / 100
}

func (s *leaderboardStats) metricValue(metric string) float64 {
	switch metric {
	case metricCatchCount:
		return float64(s.CatchCount)
	case metricAverageWeight:
		return s.averageWeight()
	default:
		return s.BiggestCatchWeight
	}
}

func (s *leaderboardStats) toDTO() LeaderboardStatsDTO {
	return LeaderboardStatsDTO{
		BiggestCatchWeight:  s.BiggestCatchWeight,
		BiggestCatchSpecies: s.BiggestCatchSpecies,
		CatchCount:          s.CatchCount,
		AverageWeight:       s.averageWeight(),
		TotalCatches:        s.TotalCatches,
	}
}

// aggregateWindowStats folds the window's catches into per-user stats.
// userIDs restricts the board to those users; nil means everyone. species is
// a case-insensitive substring filter.
func aggregateWindowStats(db *gorm.DB, userIDs []uint, species string) (map[uint]*leaderboardStats, error) {
	since := time.Now().Add(-leaderboardWindow)

	query := db.Model(&models.Catch{}).Where("created_at >= ?", since)
	if userIDs != nil {
		query = query.Where("user_id IN ?", userIDs)
	}
	if species != "" {
		query = query.Where("LOWER(species) LIKE ?", "%"+strings.ToLower(species)+"%")
	}

	var catches []models.Catch
	if err := query.Order("created_at ASC, id ASC").Find(&catches).Error; err != nil {
		return nil, err
	}

	stats := make(map[uint]*leaderboardStats)
	for i := range catches {
		ct := &catches[i]
		s, ok := stats[ct.UserID]
		if !ok {
			s = &leaderboardStats{UserID: ct.UserID, EarliestCatch: ct.CreatedAt}
			stats[ct.UserID] = s
		}
		s.CatchCount++
		s.sumWeight += ct.Weight
		if ct.Weight > s.BiggestCatchWeight {
			s.BiggestCatchWeight = ct.Weight
			s.BiggestCatchSpecies = ct.Species
		}
		if ct.CreatedAt.Before(s.EarliestCatch) {
			s.EarliestCatch = ct.CreatedAt
		}
	}

	if err := loadTotalCatchCounts(db, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func loadTotalCatchCounts(db *gorm.DB, stats map[uint]*leaderboardStats) error {
	if len(stats) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}

	var rows []struct {
		UserID uint
		Total  int64
	}
	if err := db.Model(&models.Catch{}).
		Select("user_id, COUNT(*) as total").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if s, ok := stats[row.UserID]; ok {
			s.TotalCatches = row.Total
		}
	}
	return nil
}

// buildLeaderboard ranks the aggregated stats. Ordering is fully
// deterministic: metric value descending, then earliest window catch
// ascending, then user id ascending. Equal metric values share a dense rank.
func buildLeaderboard(db *gorm.DB, stats map[uint]*leaderboardStats, metric string, viewerID uint) (entries []LeaderboardEntryDTO, totalUsers int, viewerRank *int) {
	ordered := make([]*leaderboardStats, 0, len(stats))
	for _, s := range stats {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		vi, vj := ordered[i].metricValue(metric), ordered[j].metricValue(metric)
		if vi != vj {
			return vi > vj
		}
		if !ordered[i].EarliestCatch.Equal(ordered[j].EarliestCatch) {
			return ordered[i].EarliestCatch.Before(ordered[j].EarliestCatch)
		}
		return ordered[i].UserID < ordered[j].UserID
	})

	userIDs := make([]uint, len(ordered))
	for i := range ordered {
		userIDs[i] = ordered[i].UserID
	}
	users := loadRankedUsers(db, userIDs)

	entries = make([]LeaderboardEntryDTO, len(ordered))
	rank := 0
	var prevValue float64
	for i, s := range ordered {
		value := s.metricValue(metric)
		if i == 0 || value != prevValue {
			rank++
			prevValue = value
		}
		if s.UserID == viewerID {
			r := rank
			viewerRank = &r
		}
		user := users[s.UserID]
		entries[i] = LeaderboardEntryDTO{
			Rank:     rank,
			UserID:   user.PublicID,
			Username: user.Username,
			Bio:      user.Bio,
			Value:    value,
			Stats:    s.toDTO(),
		}
	}
	return entries, len(ordered), viewerRank
}

type rankedUser struct {
	PublicID string
	Username string
	Bio      string
}

func loadRankedUsers(db *gorm.DB, userIDs []uint) map[uint]rankedUser {
	out := make(map[uint]rankedUser, len(userIDs))
	if len(userIDs) == 0 {
		return out
	}
	var rows []struct {
		ID       uint
		PublicID string
		Username string
		Bio      string
	}
	if err := db.Model(&models.User{}).
		Select("id, public_id, username, bio").
		Where("id IN ?", userIDs).
		Scan(&rows).Error; err != nil {
		return out
	}
	for _, row := range rows {
		out[row.ID] = rankedUser{PublicID: row.PublicID, Username: row.Username, Bio: row.Bio}
	}
	return out
}

func parseLeaderboardParams(c *gin.Context) (metric string, limit int, ok bool) {
	metric = c.DefaultQuery("metric", metricBiggestCatch)
	if !validMetric(metric) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid metric"})
		return "", 0, false
	}

	limit = 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 50"})
			return "", 0, false
		}
		limit = parsed
	}
	return metric, limit, true
}

func (server *Server) respondLeaderboard(c *gin.Context, metric string, limit int, stats map[uint]*leaderboardStats, viewerID uint, cacheKey string) {
	entries, totalUsers, viewerRank := buildLeaderboard(server.DB, stats, metric, viewerID)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	var viewerStats *LeaderboardStatsDTO
	if s, ok := stats[viewerID]; ok {
		dto := s.toDTO()
		viewerStats = &dto
	}

	response := LeaderboardResponseDTO{
		Metric:           metric,
		TotalUsers:       totalUsers,
		CurrentUserRank:  viewerRank,
		CurrentUserStats: viewerStats,
		Leaderboard:      entries,
	}

	payload := gin.H{
		"status":   http.StatusOK,
		"response": response,
	}

	if cacheKey != "" {
		if jsonBytes, err := json.Marshal(payload); err == nil {
			_ = cache.Set(context.Background(), cacheKey, jsonBytes, 60*time.Second)
		}
	}

	c.JSON(http.StatusOK, payload)
}

// GetMyStats returns the authenticated user's window stats without ranking.
func (server *Server) GetMyStats(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stats, err := aggregateWindowStats(server.DB, []uint{userID}, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading stats"})
		return
	}

	s, ok := stats[userID]
	if !ok {
		// No catches inside the window; the lifetime total still applies.
		s = &leaderboardStats{UserID: userID}
		stats[userID] = s
		if err := loadTotalCatchCounts(server.DB, stats); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading stats"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": s.toDTO(),
	})
}

// GetFollowingLeaderboard ranks the viewer plus everyone they follow.
func (server *Server) GetFollowingLeaderboard(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	metric, limit, ok := parseLeaderboardParams(c)
	if !ok {
		return
	}

	var followedIDs []uint
	if err := server.DB.Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", userID).
		Scan(&followedIDs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading following"})
		return
	}
	userIDs := append(followedIDs, userID)

	stats, err := aggregateWindowStats(server.DB, userIDs, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building leaderboard"})
		return
	}

	// Unlike the global board, the following comparison keeps candidates who
	// have not fished inside the window: they rank last with zero stats.
	backfilled := false
	for _, id := range userIDs {
		if _, ok := stats[id]; !ok {
			stats[id] = &leaderboardStats{UserID: id}
			backfilled = true
		}
	}
	if backfilled {
		if err := loadTotalCatchCounts(server.DB, stats); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building leaderboard"})
			return
		}
	}

	server.respondLeaderboard(c, metric, limit, stats, userID, "")
}

// GetGlobalLeaderboard ranks every user with at least one catch inside the
// window. Results are cached briefly per viewer.
func (server *Server) GetGlobalLeaderboard(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	metric, limit, ok := parseLeaderboardParams(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("leaderboard:global:%s:%d:viewer:%d", metric, limit, userID)
	if cached, err := cache.Get(context.Background(), cacheKey); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	stats, err := aggregateWindowStats(server.DB, nil, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building leaderboard"})
		return
	}

	server.respondLeaderboard(c, metric, limit, stats, userID, cacheKey)
}

// GetSpeciesLeaderboard ranks users by their catches of a single species.
// Matching is a case-insensitive substring so "bass" covers both largemouth
// and smallmouth.
func (server *Server) GetSpeciesLeaderboard(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	species := strings.TrimSpace(c.Param("species"))
	if species == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Required species"})
		return
	}

	metric, limit, ok := parseLeaderboardParams(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("leaderboard:species:%s:%s:%d:viewer:%d", strings.ToLower(species), metric, limit, userID)
	if cached, err := cache.Get(context.Background(), cacheKey); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	stats, err := aggregateWindowStats(server.DB, nil, species)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error building leaderboard"})
		return
	}

	server.respondLeaderboard(c, metric, limit, stats, userID, cacheKey)
}
