package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquarisk/workbench/internal/model"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage audited clients",
}

var clientAddSector string

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		profile, ok := model.ResolveSector(clientAddSector)
		if !ok {
			return fmt.Errorf("unknown sector %q", clientAddSector)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := st.CreateClient(ctx, args[0], profile.Label)
		if err != nil {
			return err
		}

		fmt.Printf("Created client %d: %s (%s)\n", c.ID, c.Name, c.Sector)
		return nil
	},
}

var clientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered clients",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		clients, err := st.ListClients(ctx)
		if err != nil {
			return err
		}

		if len(clients) == 0 {
			fmt.Println("No clients registered.")
			return nil
		}
		fmt.Printf("%-5s %-30s %-20s %s\n", "ID", "NAME", "SECTOR", "CREATED")
		for _, c := range clients {
			fmt.Printf("%-5d %-30s %-20s %s\n", c.ID, c.Name, c.Sector, c.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	clientAddCmd.Flags().StringVar(&clientAddSector, "sector", "Agroalimentaire", "client sector (catalog key or label)")
	clientCmd.AddCommand(clientAddCmd)
	clientCmd.AddCommand(clientListCmd)
	rootCmd.AddCommand(clientCmd)
}
