package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equipe-visionarios/imoveis-api/cache"
	"github.com/equipe-visionarios/imoveis-api/config"
	"github.com/equipe-visionarios/imoveis-api/geocode"
	"github.com/equipe-visionarios/imoveis-api/imagestore"
	"github.com/equipe-visionarios/imoveis-api/mailer"
	"github.com/equipe-visionarios/imoveis-api/routes"
	"github.com/equipe-visionarios/imoveis-api/services"
	"github.com/equipe-visionarios/imoveis-api/store"
	"github.com/equipe-visionarios/imoveis-api/utils"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

const brandName = "Equipe Visionários"

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
}

// openStores connects to MongoDB when MONGOURI is set and falls back to the
// in-memory store otherwise. The returned client is nil in memory mode.
func openStores(cfg config.Config) (services.PropertyStore, services.UserStore, *mongo.Client, error) {
	if cfg.MongoURI == "" {
		log.Println("MONGOURI not set, using in-memory store")
		props, users := store.NewMemory()
		return props, users, nil, nil
	}

	client, err := config.ConnectDB(cfg.MongoURI)
	if err != nil {
		return nil, nil, nil, err
	}
	colls := config.InitCollections(client, cfg.DBName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := config.EnsureIndexes(ctx, colls); err != nil {
		config.CloseDBConnection(client)
		return nil, nil, nil, err
	}
	return store.NewProperties(colls.Properties), store.NewUsers(colls.Users), client, nil
}

func setupRouter(deps routes.Dependencies) *mux.Router {
	router := mux.NewRouter()
	routes.Routes(router, deps)
	return router
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	propertyStore, userStore, client, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	if client != nil {
		defer config.CloseDBConnection(client)
	}

	redisClient, err := config.NewRedis(cfg)
	if err != nil {
		log.Printf("Redis unavailable, listing cache disabled: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	images, err := imagestore.New(cfg.CloudinaryURL)
	if err != nil {
		log.Fatalf("Invalid CLOUDINARY_URL: %v", err)
	}
	if !images.Enabled() {
		log.Println("CLOUDINARY_URL not set, image uploads will fail")
	}

	sender := mailer.NewSMTPSender(mailer.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		TLSMode:  cfg.SMTPTLS,
		FromName: brandName,
	})
	dispatcher := mailer.NewDispatcher(sender, 0, nil)

	tokens := utils.NewJWTManager(cfg.JWTKey, cfg.JWTTTL)
	listings := cache.NewProperties(redisClient, cache.DefaultTTL)

	deps := routes.Dependencies{
		Properties: &services.PropertyService{
			Store:          propertyStore,
			Geocoder:       geocode.New(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout),
			Images:         images,
			Cache:          listings,
			AllowAdminEdit: cfg.AdminCanEdit,
		},
		Users: &services.UserService{
			Store:       userStore,
			Tokens:      tokens,
			Images:      images,
			Queue:       dispatcher,
			Mailer:      sender,
			FrontendURL: cfg.FrontendURL,
			ResetTTL:    cfg.ResetTokenTTL,
			Listings:    listings,
		},
		Tokens: tokens,
	}
	router := setupRouter(deps)

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handler := corsOptions.Handler(router)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	if err := dispatcher.Close(ctx); err != nil {
		log.Printf("Mail queue not drained: %v", err)
	}
	log.Println("Server gracefully stopped")
}
