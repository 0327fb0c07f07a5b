package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/darxtarr/txxt/internal/auth"
	"github.com/darxtarr/txxt/internal/broadcast"
	"github.com/darxtarr/txxt/internal/config"
	"github.com/darxtarr/txxt/internal/serverapp"
	"github.com/darxtarr/txxt/internal/store"
)

func main() {
	configPath := flag.String("config", "txxt_config.yml", "path to the yaml configuration document")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sf, err := store.Open(cfg.SaveFile)
	if err != nil {
		log.Fatalf("open save file: %v", err)
	}
	defer sf.Close()

	w, err := sf.LoadWorld()
	if err != nil {
		log.Fatalf("load world: %v", err)
	}

	if n, err := sf.EnsureDefaultServices(w); err != nil {
		log.Fatalf("seed default services: %v", err)
	} else if n > 0 {
		log.Printf("seeded %d default services", n)
	}
	if seeded, err := sf.EnsureDefaultUser(w); err != nil {
		log.Fatalf("seed default user: %v", err)
	} else if seeded {
		log.Printf("seeded default admin user")
	}

	bus := broadcast.New(cfg.BroadcastCapacity)

	authSvc := auth.NewService(auth.Options{
		World:   w,
		TTL:     cfg.SessionTTL,
		DevMode: cfg.DevModeAuth,
	})

	handler, err := serverapp.NewHandler(serverapp.Options{
		World:         w,
		Save:          sf,
		Bus:           bus,
		Auth:          authSvc,
		StaticDir:     "static",
		UseDiskStatic: useDiskStaticByEnv(),
		Logger:        log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on %s", cfg.ListenAddress)
	log.Fatal(http.ListenAndServe(cfg.ListenAddress, handler))
}

func useDiskStaticByEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TXXT_DEV_STATIC"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
