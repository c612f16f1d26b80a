package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/zazapalm3012/ito-gameweb/internal/gateway"
	"github.com/zazapalm3012/ito-gameweb/internal/ledger"
	"github.com/zazapalm3012/ito-gameweb/internal/lobby"
	"github.com/zazapalm3012/ito-gameweb/ito"
)

func main() {
	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	lby := lobby.New(ito.DefaultConfig(), ledgerService)
	defer lby.Close()
	gw := gateway.New(lby)
	gameHTTP := gateway.NewHTTPHandler(lby, gw)
	historyHTTP := ledger.NewHTTPHandler(ledgerService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	gameHTTP.RegisterRoutes(mux)
	historyHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("SERVER_ADDR"))
	if addr == "" {
		addr = ":5000"
	}
	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Starting game server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
