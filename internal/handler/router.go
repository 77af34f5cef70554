package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted by Register.
type Handlers struct {
	Auth    *AuthHandler
	Results *ResultsHandler
	Crawler *CrawlerHandler
}

// Register mounts the results API on api. auth guards every route except
// login and register.
func Register(api gin.IRouter, h Handlers, auth gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/register", h.Auth.Register)

	secured := api.Group("")
	secured.Use(auth)
	secured.GET("/results/:session", h.Results.Get)

	crawler := secured.Group("/crawler")
	crawler.POST("/refresh", h.Crawler.Refresh)
	crawler.GET("/config", h.Crawler.GetConfig)
	crawler.POST("/config", h.Crawler.SaveConfig)
	crawler.GET("/class", h.Crawler.ListClasses)
	crawler.POST("/class", h.Crawler.CreateClass)
	crawler.PUT("/class/:id", h.Crawler.UpdateClass)
	crawler.DELETE("/class/:id", h.Crawler.DeleteClass)
}
