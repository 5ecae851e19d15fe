package controllers

import (
	"github.com/BeckettFrey/RodRoyale/middlewares"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

func (s *Server) initializeRoutes() {

	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.Router.Group("/api/v1")
	{
		// Auth routes
		v1.POST("/login", middlewares.LoginRateLimitMiddleware(), s.Login)
		v1.POST("/password/forgot", middlewares.LoginRateLimitMiddleware(), s.ForgotPassword)
		v1.POST("/password/reset", middlewares.LoginRateLimitMiddleware(), s.ResetPassword)

		// Users routes
		v1.POST("/users", s.CreateUser)
		v1.GET("/users", s.GetUsers)
		v1.GET("/users/:id", s.GetUser)
		v1.PUT("/users/:id", middlewares.TokenAuthMiddleware(s.DB), s.UpdateUser)
		v1.PUT("/users/:id/avatar", middlewares.TokenAuthMiddleware(s.DB), s.UpdateAvatar)
		v1.DELETE("/users/:id", middlewares.TokenAuthMiddleware(s.DB), s.DeleteUser)

		// Follow routes
		v1.POST("/users/:id/follow", middlewares.TokenAuthMiddleware(s.DB), s.FollowUser)
		v1.DELETE("/users/:id/follow", middlewares.TokenAuthMiddleware(s.DB), s.UnfollowUser)
		v1.GET("/users/:id/followers", middlewares.OptionalAuthMiddleware(s.DB), s.GetFollowers)
		v1.GET("/users/:id/following", middlewares.OptionalAuthMiddleware(s.DB), s.GetFollowing)
		v1.GET("/users/:id/relationship", middlewares.TokenAuthMiddleware(s.DB), s.GetRelationship)

		// Catch routes
		v1.POST("/catches", middlewares.TokenAuthMiddleware(s.DB), s.CreateCatch)
		v1.POST("/catches/upload-with-image", middlewares.TokenAuthMiddleware(s.DB), s.CreateCatchWithImage)
		v1.GET("/catches/feed", middlewares.TokenAuthMiddleware(s.DB), s.GetFeed)
		v1.GET("/catches/me", middlewares.TokenAuthMiddleware(s.DB), s.GetMyCatches)
		v1.GET("/catches/:id", middlewares.OptionalAuthMiddleware(s.DB), s.GetCatch)
		v1.PUT("/catches/:id", middlewares.TokenAuthMiddleware(s.DB), s.UpdateCatch)
		v1.DELETE("/catches/:id", middlewares.TokenAuthMiddleware(s.DB), s.DeleteCatch)
		v1.GET("/users/:id/catches", middlewares.OptionalAuthMiddleware(s.DB), s.GetUserCatches)

		// Pin routes
		v1.POST("/pins", middlewares.TokenAuthMiddleware(s.DB), s.CreatePin)
		v1.GET("/pins", middlewares.TokenAuthMiddleware(s.DB), s.GetPins)
		v1.GET("/pins/:id", middlewares.OptionalAuthMiddleware(s.DB), s.GetPin)
		v1.PUT("/pins/:id", middlewares.TokenAuthMiddleware(s.DB), s.UpdatePin)
		v1.DELETE("/pins/:id", middlewares.TokenAuthMiddleware(s.DB), s.DeletePin)

		// Leaderboard routes
		v1.GET("/leaderboard/my-stats", middlewares.TokenAuthMiddleware(s.DB), s.GetMyStats)
		v1.GET("/leaderboard/following", middlewares.TokenAuthMiddleware(s.DB), s.GetFollowingLeaderboard)
		v1.GET("/leaderboard/global", middlewares.TokenAuthMiddleware(s.DB), s.GetGlobalLeaderboard)
		v1.GET("/leaderboard/species/:species", middlewares.TokenAuthMiddleware(s.DB), s.GetSpeciesLeaderboard)
	}
}
