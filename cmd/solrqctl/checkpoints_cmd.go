package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/solrq/internal/db"
	dbRedis "github.com/kailas-cloud/solrq/internal/db/redis"
	checkpointrepo "github.com/kailas-cloud/solrq/internal/repository/checkpoint"
)

const storeReadyTimeout = 10 * time.Second

// openStore is replaced in tests.
var openStore = func(cfg dbRedis.Config) (db.Store, error) {
	s, err := dbRedis.NewStore(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by redisFlags.open
	}
	return s, nil
}

// redisFlags locate the checkpoint store.
type redisFlags struct {
	addrs     []string
	password  string
	keyPrefix string
	ttl       time.Duration
}

func (r *redisFlags) bind(flags *pflag.FlagSet) {
	flags.StringSliceVar(&r.addrs, "redis", nil, "redis addresses for checkpoints (comma separated)")
	flags.StringVar(&r.password, "redis-password", "", "redis password")
	flags.StringVar(&r.keyPrefix, "key-prefix", "solrq:", "checkpoint key prefix")
	flags.DurationVar(&r.ttl, "ttl", 24*time.Hour, "how long checkpoints are kept")
}

func (r *redisFlags) enabled() bool { return len(r.addrs) > 0 }

// open connects to the store and waits until it answers. The returned func
// closes the connection.
func (r *redisFlags) open(ctx context.Context) (*checkpointrepo.Repo, func(), error) {
	store, err := openStore(dbRedis.Config{Addrs: r.addrs, Password: r.password})
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint store: %w", err)
	}
	if err := store.WaitForReady(ctx, storeReadyTimeout); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("checkpoint store: %w", err)
	}
	return checkpointrepo.New(store, r.keyPrefix, r.ttl), store.Close, nil
}

func newCheckpointsCommand() *cobra.Command {
	var rf redisFlags
	cmd := &cobra.Command{
		Use:     "checkpoints",
		Aliases: []string{"cp"},
		Short:   "Inspect and remove saved export checkpoints",
	}
	rf.bind(cmd.PersistentFlags())
	cmd.AddCommand(
		newCheckpointsListCommand(&rf),
		newCheckpointsShowCommand(&rf),
		newCheckpointsRemoveCommand(&rf),
	)
	return cmd
}

// withRepo runs fn against the checkpoint repository named by rf.
func withRepo(cmd *cobra.Command, rf *redisFlags, fn func(*checkpointrepo.Repo) error) error {
	cmd.SilenceUsage = true
	if !rf.enabled() {
		return fmt.Errorf("--redis is required")
	}
	repo, closeFn, err := rf.open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(repo)
}

func newCheckpointsListCommand(rf *redisFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved checkpoints",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd, rf, func(repo *checkpointrepo.Repo) error {
				ctx := cmd.Context()
				ids, err := repo.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCORE\tEXPORTED\tFINISHED\tUPDATED")
				for _, id := range ids {
					c, err := repo.Get(ctx, id)
					if err != nil {
						// Expired between SCAN and GET.
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
						c.ID, c.Core, c.Exported, c.Finished, c.UpdatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func newCheckpointsShowCommand(rf *redisFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one checkpoint as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, rf, func(repo *checkpointrepo.Repo) error {
				c, err := repo.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			})
		},
	}
}

func newCheckpointsRemoveCommand(rf *redisFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete checkpoints so their exports can no longer resume",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, rf, func(repo *checkpointrepo.Repo) error {
				for _, id := range args {
					if err := repo.Delete(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
				}
				return nil
			})
		},
	}
}
