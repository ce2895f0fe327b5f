package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/teilomillet/gochain/server"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the learning guide and recipe planner over HTTP",
		Long:  "Serve the JSON API. Set REDIS_ADDR to share session results between instances.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd)
			if err != nil {
				return err
			}
			cfg := client.Config
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}

			var store server.ResultStore = server.NewMemoryStore()
			if cfg.RedisAddr != "" {
				redisStore, err := server.DialRedis(cmd.Context(), cfg.RedisAddr, cfg.RedisTTL)
				if err != nil {
					return err
				}
				store = redisStore
				client.Logger.Info("Using Redis result store", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
			}

			gin.SetMode(server.Mode(cfg.LogLevel))
			srv := server.New(client.Runner, store, client.Logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (default GOCHAIN_ADDR)")
	return cmd
}
