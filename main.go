package main

import (
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/HSouheill/affiliate_signup/config"
	"github.com/HSouheill/affiliate_signup/controllers"
	"github.com/HSouheill/affiliate_signup/middleware"
	"github.com/HSouheill/affiliate_signup/routes"
	"github.com/HSouheill/affiliate_signup/serverless"
	"github.com/HSouheill/affiliate_signup/services"
	"github.com/HSouheill/affiliate_signup/utils"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	tapfiliateConfig := config.LoadTapfiliateConfig()

	programs, err := config.LoadPrograms(tapfiliateConfig.ProgramsFile)
	if err != nil {
		log.Printf("Warning: %v, using default programs", err)
		programs = config.DefaultPrograms()
	}

	tapfiliateService := services.NewTapfiliateService(tapfiliateConfig, nil)

	// Share the custom field catalog through Redis when available
	var catalogStore services.CatalogStore
	if redisClient := config.ConnectRedis(); redisClient != nil {
		catalogStore = services.NewRedisCatalogStore(redisClient, "", 24*time.Hour)
	}
	fieldCache := services.NewCustomFieldCache(tapfiliateService, catalogStore, services.RefreshPolicy{
		TTL:            tapfiliateConfig.CustomFieldsTTL,
		RequiredLabels: []string{utils.LabelCommissionType},
	})

	affiliateController := controllers.NewAffiliateController(tapfiliateService, fieldCache, programs)

	perSecond, burst := config.RateLimitConfig()
	rateLimiter := middleware.NewRateLimiter(perSecond, burst, 5*time.Minute)
	rateLimiter.StartCleanup(time.Hour, nil)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = routes.ErrorHandler

	// Middleware
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	routes.RegisterAffiliateRoutes(e, affiliateController, rateLimiter)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Println("Starting Lambda handler")
		lambda.Start(serverless.NewHandler(e).Invoke)
		return
	}

	e.Logger.Fatal(e.Start(":" + config.Port()))
}
