// Package diagnostics exposes a container's registrations over HTTP.
//
//	router := gin.New()
//	router.Use(diagnostics.RequestLogger(nil))
//	diagnostics.Register(router, container)
//
// Routes:
//
//	GET /di/registrations           every registration, optionally ?contract=
//	GET /di/registrations/count     registration and contract counts
//	GET /di/interceptors            interceptor rules in lookup order
//	GET /di/info                    library build and uptime
package diagnostics
