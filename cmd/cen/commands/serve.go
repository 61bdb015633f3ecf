package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerica/cen/agent"
	"github.com/nerica/cen/am"
	"github.com/nerica/cen/logger"
	"github.com/nerica/cen/models"
	"github.com/nerica/cen/server"
)

// ServeCmd runs the admin server and the agent polling loop.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin server and agent polling loop",
	Long: `Start the admin HTTP server and, when an agent name is configured, the
card-handling agent loop. Changes to the configured models directory are
picked up live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := am.Load()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			config.Server.Port = port
		}

		store, j, err := openStore(config)
		if err != nil {
			return err
		}
		if j != nil {
			defer j.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := []server.Option{}
		if j != nil {
			opts = append(opts, server.WithJournal(j))
		}

		if config.Agent.Name != "" {
			pollInterval := time.Duration(config.Agent.PollIntervalMS) * time.Millisecond
			a := agent.New(store, config.Agent.Name, pollInterval)
			store.Submit(fmt.Sprintf("there is an agent named '%s'", config.Agent.Name), "config")
			for peer, address := range config.Agent.Peers {
				store.Submit(fmt.Sprintf("there is an agent named '%s' that has '%s' as address",
					peer, address), "config")
			}
			opts = append(opts, server.WithAgent(a))
			go func() {
				if err := a.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Errorw("agent loop stopped", "error", err)
				}
			}()
		}

		if config.Models.Autoload && config.Models.Dir != "" {
			watcher, err := am.NewWatcher(config.Models.Dir)
			if err != nil {
				logger.Warnw("model watcher unavailable", "dir", config.Models.Dir, "error", err)
			} else {
				defer watcher.Close()
				watcher.OnReload(func(path string) error {
					sentences, err := models.Load(config.Models.Dir)
					if err != nil {
						return err
					}
					store.LoadModel(sentences, "model:"+config.Models.Dir)
					logger.Infow("models reloaded", "dir", config.Models.Dir, "changed", path)
					return nil
				})
			}
		}

		srv := server.New(store, config.Server, opts...)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	ServeCmd.Flags().Int("port", 0, "Override the configured server port")
}
