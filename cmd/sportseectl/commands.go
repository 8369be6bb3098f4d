package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/2beens/sportsee/internal/auth"
	"github.com/2beens/sportsee/internal/config"
	"github.com/2beens/sportsee/internal/db"
	"github.com/2beens/sportsee/internal/provider"
	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/users"
	"github.com/2beens/sportsee/pkg"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const defaultFixturePath = "./assets/data.json"

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password, for the fixture passwordHash field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := pkg.HashPasswordWithCost(args[0], cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", pkg.DefaultPasswordCost, "bcrypt cost")
	return cmd
}

func newValidateFixtureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-fixture <path>",
		Short: "Check a users fixture file and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := users.LoadFixtureStore(args[0])
			if err != nil {
				for _, e := range multierr.Errors(err) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), " - %s\n", e)
				}
				return fmt.Errorf("invalid fixture %s", args[0])
			}

			out := cmd.OutOrStdout()
			all := store.Users()
			_, _ = fmt.Fprintf(out, "%d users\n", len(all))
			for _, u := range all {
				first, last := "-", "-"
				sessions := running.SortByDate(running.MapUserActivity(u.RunningData))
				if len(sessions) > 0 {
					first, last = sessions[0].DateIso, sessions[len(sessions)-1].DateIso
				}
				_, _ = fmt.Fprintf(out, "%s\t%s\t%d sessions\t%s..%s\n", u.ID, u.Username, len(sessions), first, last)
			}
			return nil
		},
	}
}

func newMintTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mint-token",
		Short: "Issue a bearer token for a user id, signed with SPORTSEE_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := os.Getenv("SPORTSEE_JWT_SECRET")
			if secret == "" {
				return errors.New("jwt secret not set. use SPORTSEE_JWT_SECRET")
			}
			token, err := auth.NewAuthService(secret, ttl, auth.NewMemoryRevocationList()).Login(userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type report struct {
	UserID         string                `json:"userId"`
	User           running.User          `json:"user"`
	WeeklyDistance []running.WeekBucket  `json:"weeklyDistance"`
	HeartRate      running.HeartRateWeek `json:"heartRate"`
	WeekKpis       running.WeekKpis      `json:"weekKpis"`
	ProfileStats   running.ProfileStats  `json:"profileStats"`
}

func newReportCmd() *cobra.Command {
	var (
		fixturePath string
		userID      string
		endDate     string
		weeks       int
		weekOffset  int
		lang        string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard aggregates of a fixture user as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			locale, err := running.ParseLocale(lang)
			if err != nil {
				return err
			}
			if endDate == "" {
				endDate = running.FormatLocalDate(running.CalendarDate(time.Now()))
			}
			endTime, err := running.ParseLocalDate(endDate)
			if err != nil {
				return err
			}

			store, err := users.LoadFixtureStore(fixturePath)
			if err != nil {
				return err
			}
			p := provider.NewStoreProvider(store)
			ctx := cmd.Context()
			caller := provider.Caller{UserID: userID}

			info, err := p.UserInfo(ctx, caller)
			if err != nil {
				return err
			}
			sessions, err := p.UserActivity(ctx, caller, running.DateRange{})
			if err != nil {
				return err
			}

			buckets, err := running.BuildWeeklyAverageDistance(sessions, endDate, weeks)
			if err != nil {
				return err
			}

			r := report{
				UserID:         userID,
				User:           info.User,
				WeeklyDistance: buckets,
				HeartRate:      running.BuildLastISOWeekHeartRateLocalized(sessions, weekOffset, locale),
				WeekKpis:       running.BuildWeekKpis(sessions, running.ISOWeekRange(endTime)),
				ProfileStats:   running.BuildProfileStats(sessions),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", defaultFixturePath, "users fixture file")
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date of the weekly distance window, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&weeks, "weeks", running.DefaultWeekCount, "number of weekly distance buckets")
	cmd.Flags().IntVar(&weekOffset, "week-offset", 0, "heart rate week offset from the latest session week")
	cmd.Flags().StringVar(&lang, "lang", string(running.DefaultLocale), "day labels locale (fr, en)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newImportFixtureCmd() *cobra.Command {
	var (
		fixturePath string
		env         string
		configPath  string
	)
	cmd := &cobra.Command{
		Use:   "import-fixture",
		Short: "Create the postgres schema and import the fixture users into it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(env, configPath)
			if err != nil {
				return err
			}
			fixture, err := users.LoadFixtureStore(fixturePath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
				DBHost:     cfg.PostgresHost,
				DBPort:     cfg.PostgresPort,
				DBName:     cfg.PostgresDBName,
				DBUser:     os.Getenv("SPORTSEE_DB_USER"),
				DBPassword: os.Getenv("SPORTSEE_DB_PASS"),
			})
			if err != nil {
				return fmt.Errorf("new db pool: %w", err)
			}
			defer dbPool.Close()

			return importUsers(ctx, cmd, users.NewPostgresStore(dbPool), fixture.Users())
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", defaultFixturePath, "users fixture file")
	cmd.Flags().StringVar(&env, "env", "development", "config environment")
	cmd.Flags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	return cmd
}

type userImporter interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, user users.User) error
}

// importUsers skips users that already exist, so the import can be re-run.
func importUsers(ctx context.Context, cmd *cobra.Command, store userImporter, all []users.User) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	out := cmd.OutOrStdout()
	imported, skipped := 0, 0
	for _, u := range all {
		err := store.Insert(ctx, u)
		switch {
		case errors.Is(err, users.ErrUserExists):
			skipped++
			_, _ = fmt.Fprintf(out, "skip %s: already exists\n", u.ID)
		case err != nil:
			return fmt.Errorf("import %s: %w", u.ID, err)
		default:
			imported++
			_, _ = fmt.Fprintf(out, "imported %s (%d sessions)\n", u.ID, len(u.RunningData))
		}
	}
	_, err := fmt.Fprintf(out, "%d imported, %d skipped\n", imported, skipped)
	return err
}
