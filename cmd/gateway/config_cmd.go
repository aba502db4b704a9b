package main

import (
	"fmt"

	"content-gateway/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the gateway configuration",
	}
	cmd.AddCommand(newConfigCheckCmd())
	return cmd
}

// config check carrega arquivo + ambiente, valida e imprime o resultado final
// com os segredos mascarados.
func newConfigCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load, validate and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			redacted := *cfg
			redacted.Supabase.ServiceRoleKey = mask(cfg.Supabase.ServiceRoleKey)
			redacted.Auth.JWTSecret = mask(cfg.Auth.JWTSecret)
			redacted.Rate.Stats.RedisPassword = mask(cfg.Rate.Stats.RedisPassword)

			out, err := yaml.Marshal(&redacted)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			fmt.Fprintln(cmd.ErrOrStderr(), "config ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
