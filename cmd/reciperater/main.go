// Command reciperater keeps a list of rated meals. Without a session the
// list lives in a local archive; after login it is read from and written to
// the database and the R2 bucket.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohits-web03/reciperater/internal/config"
	"github.com/rohits-web03/reciperater/internal/imaging"
	"github.com/rohits-web03/reciperater/internal/logger"
	"github.com/rohits-web03/reciperater/internal/mealbook"
	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/repositories"
	"github.com/rohits-web03/reciperater/internal/session"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	tokens session.FileTokenSource
	gate   *session.TokenGate
	book   *mealbook.Book

	// syncer is set once the remote stores have been dialed.
	syncer *mealsync.Syncer
}

var (
	cli     *app
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reciperater",
	Short: "Rate meals and keep their photos",
	Long: `reciperater keeps a list of meals with a name, a rating and a photo.

Without a session meals are kept in a local archive file. After "login"
they are stored remotely: records in Postgres, photos in R2.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cli == nil {
			cli = newApp(config.Envs, verbose)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Photo replacement removes the old blobs in the background.
		if cli != nil && cli.syncer != nil {
			cli.syncer.Wait()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every step")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg config.Config, verbose bool) *app {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	} else if level == "" {
		level = "warn"
	}

	a := &app{
		cfg:    cfg,
		log:    logger.NewWithWriter(os.Stderr, "development", level),
		tokens: session.FileTokenSource{Path: cfg.SessionFile},
	}
	a.gate = session.NewTokenGate(cfg.JWTSecret, a.tokens)
	a.book = mealbook.New(a.gate, a.gate.Owner, repositories.NewArchiveStore(cfg.ArchivePath), a.remote)
	return a
}

// remote dials the database and bucket once per invocation.
func (a *app) remote(ownerID string) (mealbook.Remote, error) {
	if a.syncer != nil {
		return a.syncer, nil
	}

	db, err := repositories.ConnectDatabase(a.cfg.DB_URL, a.log)
	if err != nil {
		return nil, err
	}
	blobs, err := repositories.NewR2BlobStore(a.cfg.R2)
	if err != nil {
		return nil, err
	}
	images := imaging.NewProcessor(a.cfg.Images.ThumbnailScale, a.cfg.Images.ThumbnailQuality, a.cfg.Images.PhotoQuality)

	a.syncer = mealsync.New(repositories.NewMealStore(db).ForOwner(ownerID), blobs, images, ownerID,
		mealsync.WithLogger(a.log),
		mealsync.WithCleanupTimeout(a.cfg.CleanupTimeout),
		mealsync.WithStateHook(func(st mealsync.State) {
			a.log.Debug("save step", "state", st.String())
		}),
	)
	return a.syncer, nil
}
