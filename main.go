// main.go
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/clinicdesk/clinic-api/config"
	"github.com/clinicdesk/clinic-api/endpoint"
	"github.com/clinicdesk/clinic-api/middleware"
	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.Doctor{},
		&model.Appointment{},
		&model.QueueEntry{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	util.SetAuditLoggerDB(db)
	util.InitUserEmailCacheFromEnv()
	if err := util.InitGeoIP(""); err != nil {
		log.Printf("GeoIP disabled: %v", err)
	}
	defer util.CloseGeoIP()

	if _, err := config.ConnectRedis(); err != nil {
		// Redis backs the token denylist, rate limiter and dashboard cache;
		// all of them degrade gracefully without it.
		log.Printf("Redis unavailable: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	auth := router.Group("/auth")
	{
		limited := auth.Group("")
		limited.Use(middleware.RateLimiter(middleware.RateLimitConfig{}))
		limited.POST("/register", endpoint.Register)
		limited.POST("/login", endpoint.Login)

		auth.POST("/logout", middleware.AuthRequired(), endpoint.Logout)
	}

	api := router.Group("")
	api.Use(middleware.AuthRequired())

	staff := api.Group("")
	staff.Use(middleware.RequireRoles(model.RoleAdmin, model.RoleReceptionist, model.RoleDoctor))
	{
		staff.GET("/patients", endpoint.ListPatients)
		staff.GET("/patients/:id", endpoint.GetPatientInfo)
		staff.GET("/doctors", endpoint.ListDoctors)
		staff.GET("/doctors/:id", endpoint.GetDoctorInfo)
		staff.GET("/dashboard/stats", endpoint.GetDashboardStats)

		// Queue mutations are front-desk work; patients interact with the
		// queue through staff.
		staff.POST("/queue", endpoint.AddToQueue)
		staff.PUT("/queue/:id", endpoint.UpdateQueueEntry)
		staff.DELETE("/queue/:id", endpoint.DeleteQueueEntry)
	}

	frontDesk := api.Group("")
	frontDesk.Use(middleware.RequireRoles(model.RoleAdmin, model.RoleReceptionist))
	{
		frontDesk.POST("/patients", endpoint.CreatePatient)
		frontDesk.PUT("/patients/:id", endpoint.UpdatePatient)
		frontDesk.DELETE("/patients/:id", endpoint.DeactivatePatient)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(model.RoleAdmin))
	{
		admin.POST("/doctors", endpoint.CreateDoctor)
		admin.PUT("/doctors/:id", endpoint.UpdateDoctor)
		admin.DELETE("/doctors/:id", endpoint.DeactivateDoctor)
	}

	// Appointment handlers enforce per-patient ownership themselves, so
	// patient-role callers can book against their own record. Queue reads
	// stay open to any authenticated caller.
	{
		api.GET("/appointments", endpoint.ListAppointments)
		api.POST("/appointments", endpoint.CreateAppointment)
		api.GET("/appointments/:id", endpoint.GetAppointment)
		api.PUT("/appointments/:id", endpoint.UpdateAppointment)
		api.DELETE("/appointments/:id", endpoint.CancelAppointment)

		api.GET("/queue", endpoint.ListQueue)
		api.GET("/queue/:id", endpoint.GetQueueEntry)
	}

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
