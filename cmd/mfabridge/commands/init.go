package commands

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/mfabridge/internal/config"
	"github.com/MrEthical07/mfabridge/internal/otp"
	"github.com/MrEthical07/mfabridge/password"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a sample configuration with an "admin" user protected by a
password and a TOTP code. The generated password and TOTP enrollment URI are
printed once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := cfgFile
			if path == "" {
				path = "mfabridge.yaml"
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			pw := rand.Text()
			hasher, err := password.NewArgon2(password.DefaultConfig())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash([]byte(pw))
			if err != nil {
				return err
			}

			verifier, err := otp.New(otp.DefaultConfig())
			if err != nil {
				return err
			}
			_, secret, err := verifier.GenerateSecret()
			if err != nil {
				return err
			}

			if err := config.SaveConfig(config.Sample(hash, secret), path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration written to %s\n\n", path)
			fmt.Fprintf(out, "  admin password: %s\n", pw)
			fmt.Fprintf(out, "  TOTP enrollment: %s\n\n", verifier.ProvisionURI(secret, "admin"))
			fmt.Fprintf(out, "Start the service with:\n  mfabridge serve --config %s --dev\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
