package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/app/service"
	"github.com/digitalghar/storefront/internal/importer"
	"github.com/digitalghar/storefront/pkg/format"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/storeapi"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin account email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin account password")
	dryRun := flag.Bool("dry-run", false, "parse and report without creating products")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <products.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.LogLevel(), Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := storeapi.NewClient(storeapi.Config{BaseURL: cfg.StoreAPI.BaseURL, Timeout: cfg.StoreAPI.Timeout})
	if err != nil {
		log.Fatal("Failed to create store API client:", err)
	}

	if *email == "" || *password == "" {
		log.Fatal("Admin credentials are required (-email/-password or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}
	auth, err := client.Login(ctx, storeapi.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		log.Fatal("Failed to sign in:", err)
	}
	if auth.User == nil || !auth.User.IsAdmin() {
		log.Fatal("Account is not an admin")
	}

	im := importer.New(service.NewAdminService(client), auth.AccessToken)
	categories, err := im.Categories(ctx)
	if err != nil {
		log.Fatal("Failed to load categories:", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open file:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	sheet, err := importer.ReadProducts(f, categories)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary (%s):\n", sheet.Name)
	fmt.Printf("  Products to import: %d\n", len(sheet.Rows))
	fmt.Printf("  Skipped rows: %d\n", len(sheet.Skipped))
	for _, s := range sheet.Skipped {
		fmt.Printf("    line %d %q: %s\n", s.Line, format.Truncate(s.Title, 40), s.Reason)
	}

	if *dryRun || len(sheet.Rows) == 0 {
		return
	}

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	result, err := im.Import(ctx, sheet.Rows)
	if err != nil {
		fmt.Printf("Import interrupted: %v\n", err)
	}

	fmt.Printf("Products created: %d\n", result.Created)
	for _, s := range result.Failed {
		fmt.Printf("  failed line %d %q: %s\n", s.Line, format.Truncate(s.Title, 40), s.Reason)
	}
	if len(result.Failed) > 0 || err != nil {
		os.Exit(1)
	}
	fmt.Println("Import completed successfully!")
}
