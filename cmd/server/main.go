package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/database"
	"github.com/roamio/audio-tour-api/internal/handler"
	"github.com/roamio/audio-tour-api/internal/queue"
	"github.com/roamio/audio-tour-api/internal/repository"
	"github.com/roamio/audio-tour-api/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Print("redis unavailable, rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	locations := repository.NewLocationRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	progress := repository.NewProgressRepo(db)

	ah := handler.NewAuthHandler(cfg, users)
	lh := handler.NewLocationHandler(cfg, locations)
	uh := handler.NewUserHandler(cfg, users, locations, favorites, progress)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, cfg, rdb, ah, lh, uh)

	// Background consumer appends tour.completed events to the activity
	// log; it reconnects forever and never takes the server down.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
