package controllers

import "time"

type UserDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio"`
	AvatarPath     string    `json:"avatar_path"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserSummaryDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type FollowUserDTO struct {
	UserDTO
	ViewerFollowing  bool `json:"viewer_following"`
	ViewerFollowedBy bool `json:"viewer_followed_by"`
	Mutual           bool `json:"mutual"`
}

type CatchDTO struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"user_id"`
	Owner               UserSummaryDTO `json:"owner"`
	Species             string         `json:"species"`
	Weight              float64        `json:"weight"`
	PhotoURL            string         `json:"photo_url"`
	Lat                 float64        `json:"lat"`
	Lng                 float64        `json:"lng"`
	SharedWithFollowers bool           `json:"shared_with_followers"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

type PinCatchInfoDTO struct {
	ID      string  `json:"id"`
	Species string  `json:"species"`
	Weight  float64 `json:"weight"`
}

type PinDTO struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Owner      UserSummaryDTO   `json:"owner"`
	CatchID    string           `json:"catch_id"`
	CatchInfo  *PinCatchInfoDTO `json:"catch_info"`
	Lat        float64          `json:"lat"`
	Lng        float64          `json:"lng"`
	Visibility string           `json:"visibility"`
	CreatedAt  time.Time        `json:"created_at"`
}

type LeaderboardStatsDTO struct {
	BiggestCatchWeight  float64 `json:"biggest_catch_weight"`
	BiggestCatchSpecies string  `json:"biggest_catch_species"`
	CatchCount          int64   `json:"catch_count"`
	AverageWeight       float64 `json:"average_weight"`
	TotalCatches        int64   `json:"total_catches"`
}

type LeaderboardEntryDTO struct {
	Rank     int                 `json:"rank"`
	UserID   string              `json:"user_id"`
	Username string              `json:"username"`
	Bio      string              `json:"bio"`
	Value    float64             `json:"value"`
	Stats    LeaderboardStatsDTO `json:"stats"`
}

type LeaderboardResponseDTO struct {
	Metric           string                `json:"metric"`
	TotalUsers       int                   `json:"total_users"`
	CurrentUserRank  *int                  `json:"current_user_rank"`
	CurrentUserStats *LeaderboardStatsDTO  `json:"current_user_stats"`
	Leaderboard      []LeaderboardEntryDTO `json:"leaderboard"`
}
