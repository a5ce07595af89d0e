package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chatrelay/config"
	"chatrelay/directory"
	"chatrelay/server"
	"chatrelay/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st := store.New(cfg.UsersPath, cfg.GroupsPath)

	log.Printf("Loading user data from %s", cfg.UsersPath)
	accounts, err := st.LoadAccounts()
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	// Stale online flags from an unclean shutdown must not survive a
	// restart.
	for i := range accounts {
		accounts[i].Online = false
	}

	log.Printf("Loading group data from %s", cfg.GroupsPath)
	groups, err := st.LoadGroups()
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}

	users := directory.NewUsers(accounts, st)
	groupDir := directory.NewGroups(groups, st)

	srv := server.New(users, groupDir, &server.ServerConfig{
		Port:            cfg.Port,
		ReadTimeout:     time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeout) * time.Second,
		OfflineQueueCap: cfg.OfflineQueueCap,
		FilesRoot:       cfg.FilesRoot,
		FilePort:        cfg.FilePort,
	})

	go startControlSocket(srv, cfg.ControlSocket)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		srv.Shutdown("maintenance")
		os.Remove(cfg.ControlSocket)
		os.Exit(0)
	}()

	return srv.Start()
}

func startControlSocket(srv *server.Server, path string) {
	os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		log.Printf("Failed to create control socket: %v", err)
		return
	}
	defer listener.Close()
	defer os.Remove(path)

	log.Printf("Control socket listening on %s", path)

	for {
		conn, err := listener.Accept()
		if err != nil {
			continue
		}

		go handleControlCommand(srv, conn, path)
	}
}

func handleControlCommand(srv *server.Server, conn net.Conn, socketPath string) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(line), "|", 2)
	switch parts[0] {
	case "stats":
		conn.Write([]byte("OK|" + srv.GetStats() + "\n"))

	case "shutdown":
		reason := "maintenance"
		if len(parts) == 2 && parts[1] != "" {
			reason = parts[1]
		}

		conn.Write([]byte("OK|Shutting down\n"))
		conn.Close()

		// Give time for the response to be sent.
		time.Sleep(100 * time.Millisecond)

		srv.Shutdown(reason)
		os.Remove(socketPath)
		os.Exit(0)

	default:
		conn.Write([]byte("ERROR|Unknown command\n"))
	}
}
