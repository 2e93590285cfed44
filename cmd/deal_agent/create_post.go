package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/deal-poster/internal/config"
	"github.com/jonathan/deal-poster/internal/pipeline"
)

var createPostCmd = &cobra.Command{
	Use:   "create-post",
	Short: "Create a deal post from hand-entered values",
	Long: `Write a deal post from environment values. The ASIN is taken from the URL
when it has one and AMAZON_ASSOCIATE_TAG is appended as tag= when missing.

Environment: TITLE and URL (required), IMAGE_URL, PRICE, DISCOUNT_PCT, NOTE,
AMAZON_ASSOCIATE_TAG, TELEGRAM_BOT_TOKEN, TELEGRAM_CHANNEL_ID.`,
	Args: cobra.NoArgs,
	RunE: runCreatePost,
}

func init() {
	rootCmd.AddCommand(createPostCmd)
}

func runCreatePost(cmd *cobra.Command, _ []string) error {
	env, err := config.LoadManualEnv()
	if err != nil {
		return err
	}
	opts, err := runOptions(cmd, cfg.PostSchema(false))
	if err != nil {
		return err
	}

	res, err := pipeline.RunManual(cmd.Context(), pipeline.ManualInput{
		Title:      env.Title,
		URL:        env.URL,
		ImageURL:   env.ImageURL,
		Price:      env.Price,
		Discount:   env.Discount(),
		Note:       env.Note,
		PartnerTag: env.PartnerTag,
	}, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created post: %s\n", res.Path)
	if res.Notified {
		fmt.Fprintln(out, "Telegram sent.")
	}
	return nil
}
