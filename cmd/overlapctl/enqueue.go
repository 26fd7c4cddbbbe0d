package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	redisInfra "github.com/RishiKendai/overlap/internal/infra/redis"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/stream"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <assignmentId>",
	Short: "Queue a comparison of an assignment on the overlap service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := redisInfra.NewClient(ctx, viper.GetString("redis-host"), viper.GetString("redis-password"), 0)
		if err != nil {
			return err
		}
		defer client.Close()

		id, err := stream.Publish(ctx, client.Client, viper.GetString("stream-key"), models.CompareJob{
			AssignmentID: args[0],
			RequestedBy:  viper.GetString("requested-by"),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "queued %s as %s\n", args[0], id)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().String("redis-host", "localhost:6379", "Redis address")
	enqueueCmd.Flags().String("redis-password", "", "Redis password")
	enqueueCmd.Flags().String("stream-key", "similarity:stream", "stream the service consumes")
	enqueueCmd.Flags().String("requested-by", "overlapctl", "requester recorded on the report")

	for _, name := range []string{"redis-host", "redis-password", "stream-key", "requested-by"} {
		_ = viper.BindPFlag(name, enqueueCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(enqueueCmd)
}
