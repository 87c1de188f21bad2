package cli

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"family-quiz-sync/internal/app"
	"family-quiz-sync/internal/config"
)

// NewBotCmd runs a roster user as an automatic player against the shared session.
func NewBotCmd(configPath *string) *cobra.Command {
	var (
		userID   string
		passcode string
		maxThink time.Duration
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Join the current session as an automatic player",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			applyConfigLevel(cfg.Log.Level)

			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.roster.Authenticate(userID, passcode)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			client := app.NewClient(rt.store, rt.options...)
			if err := client.Login(ctx, user); err != nil {
				return err
			}
			bot := app.NewAutoplayer(client, app.NewRandomStrategy(seed), maxThink)

			log.Info().Str("user_id", user.ID).Dur("max_think", maxThink).Msg("bot playing")
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return client.Run(gctx) })
			g.Go(func() error { return bot.Run(gctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "roster user id to play as")
	cmd.Flags().StringVar(&passcode, "passcode", "", "passcode, required for admins")
	cmd.Flags().DurationVar(&maxThink, "max-think", 4*time.Second, "longest pause before answering")
	cmd.Flags().Int64Var(&seed, "seed", 0, "answer seed, random when zero")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
