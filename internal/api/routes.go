package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/presets", s.presets)
		api.POST("/render", s.render)
		api.POST("/export", s.export)
		api.GET("/qr", s.qr)
	}
}

// NewRouter returns a gin engine with logging, recovery and the API mounted.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = s.MaxUpload
	s.RegisterRoutes(r)
	return r
}
