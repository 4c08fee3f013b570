package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rohits-web03/reciperater/internal/mealbook"
	"github.com/rohits-web03/reciperater/internal/models"
)

var (
	mealName   string
	mealRating int
	mealPhoto  string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: "meals",
	Short:   "List meals",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		meals, err := cli.book.Meals(cmd.Context())
		if err != nil {
			return err
		}
		printMeals(cmd.OutOrStdout(), meals)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:     "add <name>",
	GroupID: "meals",
	Short:   "Add a meal",
	Long: `Add a meal with a rating and a photo.

With a session the photo is required: a thumbnail and the full photo are
uploaded before the meal is created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		photo, err := readPhoto(mealPhoto)
		if err != nil {
			return err
		}
		rec, err := models.NewRecord(args[0], photo, mealRating)
		if err != nil {
			return err
		}

		if _, err := cli.book.Meals(cmd.Context()); err != nil {
			return err
		}
		if err := cli.book.Add(cmd.Context(), rec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%d).\n", rec.Name, rec.Rating)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <position>",
	GroupID: "meals",
	Short:   "Change the name, rating or photo of a meal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := position(args[0])
		if err != nil {
			return err
		}

		var edit mealbook.Edit
		if cmd.Flags().Changed("name") {
			edit.Name = &mealName
		}
		if cmd.Flags().Changed("rating") {
			edit.Rating = &mealRating
		}
		if edit.Photo, err = readPhoto(mealPhoto); err != nil {
			return err
		}

		if _, err := cli.book.Meals(cmd.Context()); err != nil {
			return err
		}
		rec, err := cli.book.Update(cmd.Context(), index, edit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%d).\n", rec.Name, rec.Rating)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <position>",
	GroupID: "meals",
	Short:   "Remove a meal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := position(args[0])
		if err != nil {
			return err
		}
		if _, err := cli.book.Meals(cmd.Context()); err != nil {
			return err
		}
		if err := cli.book.Remove(cmd.Context(), index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed meal %d.\n", index+1)
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:     "sample",
	GroupID: "meals",
	Short:   "Add sample meals to the local archive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cli.book.AddSamples(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d sample meals.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "meals", Title: "Meals:"})

	addCmd.Flags().IntVarP(&mealRating, "rating", "r", 0, "Rating, 0 or more")
	addCmd.Flags().StringVar(&mealPhoto, "photo", "", "Path to a JPEG, PNG or GIF photo")

	editCmd.Flags().StringVarP(&mealName, "name", "n", "", "New name")
	editCmd.Flags().IntVarP(&mealRating, "rating", "r", 0, "New rating")
	editCmd.Flags().StringVar(&mealPhoto, "photo", "", "Path to a replacement photo")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, sampleCmd)
}

func printMeals(out io.Writer, meals []*models.Record) {
	if len(meals) == 0 {
		fmt.Fprintln(out, "No meals yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tRATING\tPHOTO")
	for i, m := range meals {
		photo := "-"
		switch {
		case m.PhotoURL != "":
			photo = m.PhotoURL
		case len(m.Image) > 0:
			photo = "local"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, m.Name, m.Rating, photo)
	}
	tw.Flush()
}

// position turns a 1-based list position into an index.
func position(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a number from the list, got %q", arg)
	}
	return n - 1, nil
}

func readPhoto(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}
