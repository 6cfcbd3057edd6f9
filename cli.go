package main

import (
	"fmt"
	"strings"
	"time"

	"barberbot/config"
	"barberbot/services/availability"
	"barberbot/services/booking"
	"barberbot/services/datetime"
	"barberbot/services/schedule"
	"barberbot/utils"

	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "resolve <phrase>",
		Short: "Resolve a date/time phrase in the business timezone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := config.Location()
			resolver := datetime.NewResolver(loc, datetime.WithDefaultHour(config.AppConfig.DefaultHour))
			phrase := strings.Join(args, " ")
			res, err := resolver.Resolve(phrase, time.Now())
			if err != nil {
				return err
			}
			if lang == "" {
				lang = booking.DetectLanguage(phrase)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tstrategy=%s rolled=%t\n",
				res.Moment.Format(time.RFC3339), booking.FormatMoment(lang, res.Moment), res.Strategy, res.Rolled)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "language of the formatted output (bg, en, nb)")
	return cmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <barber> <phrase> [service]",
		Short: "Check a barber's availability against the schedule sheet",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			barber, phrase := args[0], args[1]
			var service string
			if len(args) == 3 {
				service = args[2]
			}

			ctx := cmd.Context()
			cfg := config.AppConfig
			loc := config.Location()
			res, err := datetime.NewResolver(loc, datetime.WithDefaultHour(cfg.DefaultHour)).Resolve(phrase, time.Now())
			if err != nil {
				return err
			}
			svc, err := utils.SheetsService(ctx)
			if err != nil {
				return err
			}
			source := schedule.NewSheetSchedule(svc, cfg.GoogleSheetID, cfg.ServicesRange, cfg.BarbersRange)
			verdict, err := availability.NewEvaluator(source, loc).Check(ctx, barber, res.Moment, service)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tavailable=%t reason=%s\n",
				barber, res.Moment.Format(time.RFC3339), verdict.Available, verdict.Reason)
			return nil
		},
	}
}
