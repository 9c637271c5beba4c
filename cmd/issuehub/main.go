// issuehub es el binario del servicio: serve levanta la API, migrate aplica
// el esquema y keygen genera los secretos de entorno.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	// .env primero: los overrides de entorno del config dependen de esto.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "issuehub",
		Short:         "IssueHub: findings hacia tu issue tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "ruta al config YAML (opcional)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newKeygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
