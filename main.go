package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ipaas-org/airflow-publisher/app"
	"github.com/spf13/cobra"
)

func main() {
	var root string

	rootCmd := &cobra.Command{
		Use:           "airflow-publisher",
		Short:         "Build and push the airflow scheduler and webserver images to ECR",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&root, "root", ".", "directory holding config/config.yml and .env")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "publish [role...]",
		Short: "Authenticate, build, tag and push the given roles (default: all configured roles)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(root, func(ctx context.Context, a *app.App) error {
				return a.Publish(ctx, args)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Publish roles requested over rabbitmq",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(root, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(root string, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a)
}
