package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.AppInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	sessions := s.router.Group("/sessions")
	{
		sessions.GET("", s.sessionHandler.ListSessions)
		sessions.POST("", s.sessionHandler.CreateSession)
		sessions.GET("/:id", s.sessionHandler.GetSession)
		sessions.POST("/:id/stop", s.sessionHandler.StopSession)
		sessions.DELETE("/:id", s.sessionHandler.DeleteSession)
		sessions.GET("/:id/preview", s.sessionHandler.StreamPreview)

		sessions.GET("/:id/events", s.evidenceHandler.ListEvents)
		sessions.GET("/:id/log.csv", s.evidenceHandler.DownloadCSV)
		sessions.GET("/:id/frames", s.evidenceHandler.ListSnapshots)
		sessions.GET("/:id/frames/:name", s.evidenceHandler.GetSnapshot)
	}

	s.router.POST("/uploads", s.uploadHandler.UploadVideo)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.GET("/config", s.systemHandler.GetConfig)
	}
}
