// warga is the command line interface to a warga-store installation. It
// speaks through the same SDK the application uses, so it syncs through the
// relay when one is configured and works on the local store when not.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/pkg/schema"
	"github.com/smartwarga-dev/warga-store/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	dataDir := os.Getenv("WARGA_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	client, err := sdk.New(context.Background(), sdk.Options{
		DataDir: dataDir,
		Logger:  log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer client.Close()

	if user := os.Getenv("WARGA_USER"); user != "" {
		if _, err := client.Login(user, os.Getenv("WARGA_PASSWORD")); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
	}

	command := strings.ToUpper(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "RESIDENTS":
		residents, err := client.Residents()
		fatalIf(log, err)
		printJSON(residents)

	case "ADD-RESIDENT":
		if len(args) < 1 {
			log.Fatal().Msg("usage: warga ADD-RESIDENT <resident-json>")
		}
		var res schema.Resident
		if err := json.Unmarshal([]byte(args[0]), &res); err != nil {
			log.Fatal().Err(err).Msg("invalid resident json")
		}
		fatalIf(log, client.SaveResident(res))
		fmt.Println("OK")

	case "DEL-RESIDENT":
		if len(args) < 1 {
			log.Fatal().Msg("usage: warga DEL-RESIDENT <nik>")
		}
		fatalIf(log, client.DeleteResident(args[0]))
		fmt.Println("OK")

	case "REQUESTS":
		requests, err := client.Requests()
		fatalIf(log, err)
		printJSON(requests)

	case "SUBMIT":
		if len(args) < 1 {
			log.Fatal().Msg("usage: warga SUBMIT <request-json>")
		}
		var req schema.ServiceRequest
		if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
			log.Fatal().Err(err).Msg("invalid request json")
		}
		submitted, err := client.SubmitRequest(req)
		fatalIf(log, err)
		printJSON(submitted)

	case "APPROVE":
		if len(args) < 1 {
			log.Fatal().Msg("usage: warga APPROVE <request-id>")
		}
		fatalIf(log, client.UpdateRequestStatus(args[0], schema.StatusApproved))
		fmt.Println("OK")

	case "REJECT":
		if len(args) < 1 {
			log.Fatal().Msg("usage: warga REJECT <request-id>")
		}
		fatalIf(log, client.UpdateRequestStatus(args[0], schema.StatusRejected))
		fmt.Println("OK")

	case "AUDIT":
		entries, err := client.AuditLog()
		fatalIf(log, err)
		printJSON(entries)

	case "CONFIG":
		if len(args) == 0 {
			cfg, err := client.Config()
			fatalIf(log, err)
			printJSON(cfg)
			return
		}
		var cfg schema.RTConfig
		if err := json.Unmarshal([]byte(args[0]), &cfg); err != nil {
			log.Fatal().Err(err).Msg("invalid config json")
		}
		fatalIf(log, client.SaveConfig(cfg))
		fmt.Println("OK")

	case "DASHBOARD":
		info, err := client.Dashboard()
		fatalIf(log, err)
		printJSON(info)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func fatalIf(log zerolog.Logger, err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func printUsage() {
	fmt.Println("warga - CLI for warga-store")
	fmt.Println("\nUsage:")
	fmt.Println("  warga RESIDENTS")
	fmt.Println("  warga ADD-RESIDENT <resident-json>")
	fmt.Println("  warga DEL-RESIDENT <nik>")
	fmt.Println("  warga REQUESTS")
	fmt.Println("  warga SUBMIT <request-json>")
	fmt.Println("  warga APPROVE <request-id>")
	fmt.Println("  warga REJECT <request-id>")
	fmt.Println("  warga AUDIT")
	fmt.Println("  warga CONFIG [config-json]")
	fmt.Println("  warga DASHBOARD")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  WARGA_DATA_DIR     Local store directory (default: ./data)")
	fmt.Println("  WARGA_RELAY_ADDR   Relay daemon address (optional, e.g. http://localhost:7200)")
	fmt.Println("  WARGA_USER         Admin username for actions that should not be anonymous")
	fmt.Println("  WARGA_PASSWORD     Admin password")
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
