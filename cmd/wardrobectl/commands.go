package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wardrobeapi/dbhelper"
	"wardrobeapi/languageutil"
	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/stylist"
	"wardrobeapi/wardrobe"

	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- color ---

var colorCmd = &cobra.Command{
	Use:   "color <hex>",
	Short: "Name a color and check it against a season",
	Long: `Name a color and check it against a season.

Examples:
  wardrobectl color "#000080"
  wardrobectl color "#FF7F50" --season Spring`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		season, _ := cmd.Flags().GetString("season")
		hex := args[0]
		match, reason := stylist.SeasonMatch(hex, models.Season(languageutil.TitleName(season)))
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"hex":           hex,
			"name":          stylist.NearestColorName(hex),
			"group":         stylist.ColorGroup(hex),
			"season_match":  match,
			"season_reason": reason,
		})
	},
}

// --- season ---

var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Run the seasonal color analysis",
	Long: `Run the seasonal color analysis on a selfie or on the default skin sample.

Examples:
  wardrobectl season --undertone warm
  wardrobectl season --undertone cool --selfie ./me.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("undertone")
		selfie, _ := cmd.Flags().GetString("selfie")

		undertone := models.Undertone(languageutil.TitleName(raw))
		if !models.ValidateUndertoneRaw(string(undertone)) {
			return fmt.Errorf("undertone must be one of Warm, Cool, Neutral")
		}
		sample := stylist.DefaultSkinSample
		if selfie != "" {
			data, err := os.ReadFile(selfie)
			if err != nil {
				return fmt.Errorf("reading selfie: %w", err)
			}
			if sample, err = services.SampleSkin(data); err != nil {
				return err
			}
		}
		analysis := stylist.AnalyzeSeason(sample, undertone)
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"sample":         sample,
			"season":         analysis.Season,
			"contrast_level": analysis.ContrastLevel,
			"details":        stylist.SeasonDetails(analysis.Season),
			"palette":        stylist.Palette(analysis.Season),
		})
	},
}

func init() {
	colorCmd.Flags().String("season", "", "season to check the color against")
	seasonCmd.Flags().String("undertone", "Neutral", "skin undertone: warm, cool or neutral")
	seasonCmd.Flags().String("selfie", "", "path to a selfie with the face centered")
	recommendCmd.Flags().Uint("user-id", 0, "account to recommend for")
	recommendCmd.Flags().String("mood", stylist.MoodCasual, "Casual, Formal, Party or Sport")
	recommendCmd.MarkFlagRequired("user-id")
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Draw an outfit for a user from the live database",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")
		mood, _ := cmd.Flags().GetString("mood")

		cfg := services.LoadStylistConfig()
		db := dbhelper.SetupDB()
		var user models.UserAccount
		if err := db.First(&user, userID).Error; err != nil {
			return fmt.Errorf("loading user %d: %w", userID, err)
		}

		r := &wardrobe.Recommender{
			DB:                db,
			Composer:          stylist.NewComposer(cfg.Currency),
			AdvancedAvailable: cfg.AdvancedStylistEnabled,
		}
		if cfg.OpenWeatherAPIKey != "" {
			weather, err := services.NewOpenWeatherService(cfg.OpenWeatherAPIKey, cfg.DefaultWeatherCity)
			if err != nil {
				return err
			}
			r.Weather = weather
		}
		rec, err := r.Recommend(context.Background(), user, wardrobe.Options{Mood: languageutil.TitleName(mood)})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

// --- migrate ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbhelper.SetupDB()
		fmt.Fprintln(cmd.OutOrStdout(), "migrated")
		return nil
	},
}
