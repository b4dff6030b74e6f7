package diagnostics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/objectgraph/di"
	"github.com/kbukum/objectgraph/errors"
	"github.com/kbukum/objectgraph/version"
)

// startTime is when the process started, for uptime.
var startTime = time.Now()

// ModelSource describes what a container has registered. *di.Container
// implements it.
type ModelSource interface {
	Registrations() []di.Registration
	InterceptorRules() []di.InterceptorRule
}

// Register mounts the diagnostics routes on router.
func Register(router gin.IRouter, model ModelSource) {
	group := router.Group("/di")
	group.GET("/registrations", Registrations(model))
	group.GET("/registrations/count", Count(model))
	group.GET("/interceptors", Interceptors(model))
	group.GET("/info", Info())
}

// Registrations returns a handler listing registrations. The optional
// contract query parameter keeps only that contract; an unknown contract is
// reported as NOT_FOUND.
func Registrations(model ModelSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		regs := model.Registrations()

		if contract := c.Query("contract"); contract != "" {
			filtered := make([]di.Registration, 0, len(regs))
			for _, r := range regs {
				if r.Contract == contract {
					filtered = append(filtered, r)
				}
			}
			if len(filtered) == 0 {
				RespondWithError(c, errors.NotFound("contract", contract))
				return
			}
			regs = filtered
		}

		RespondOKWithMeta(c, regs, &Meta{Total: len(regs)})
	}
}

// CountResponse summarises the registry.
type CountResponse struct {
	Registrations int `json:"registrations"`
	Contracts     int `json:"contracts"`
	Singletons    int `json:"singletons_built"`
}

// Count returns a handler reporting how much is registered.
func Count(model ModelSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		regs := model.Registrations()
		contracts := make(map[string]struct{}, len(regs))
		built := 0
		for _, r := range regs {
			contracts[r.Contract] = struct{}{}
			if r.Built {
				built++
			}
		}
		RespondOK(c, CountResponse{
			Registrations: len(regs),
			Contracts:     len(contracts),
			Singletons:    built,
		})
	}
}

// Interceptors returns a handler listing interceptor rules in lookup order.
func Interceptors(model ModelSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules := model.InterceptorRules()
		RespondOKWithMeta(c, rules, &Meta{Total: len(rules)})
	}
}

// InfoResponse is the build and uptime report.
type InfoResponse struct {
	Build  version.Info `json:"build"`
	Uptime string       `json:"uptime"`
}

// Info returns a handler reporting the library build and process uptime.
func Info() gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, InfoResponse{
			Build:  version.Get(),
			Uptime: time.Since(startTime).Round(time.Second).String(),
		})
	}
}
