package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Genera los secretos de entorno del servicio",
		Long: "Genera valores aleatorios para SECRETBOX_MASTER_KEY (cifrado de tokens " +
			"en reposo) y SESSION_SIGNING_KEY (firma Ed25519 de sesiones). " +
			"Copiá la salida a tu .env.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cmd)
		},
	}
}

func runKeygen(cmd *cobra.Command) error {
	master, err := randomKey(32)
	if err != nil {
		return err
	}
	signing, err := randomKey(32)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "SECRETBOX_MASTER_KEY=%s\n", master)
	fmt.Fprintf(cmd.OutOrStdout(), "SESSION_SIGNING_KEY=%s\n", signing)
	return nil
}

func randomKey(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("keygen: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
