package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/loconomy/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo service listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		s, err := openStore(cmd.Context(), p)
		if err != nil {
			return err
		}
		defer s.Close()

		force, _ := cmd.Flags().GetBool("force")
		n, err := seedListings(cmd.Context(), s, force)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d service listings into %s\n", n, p.DSN)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("force", false, "seed even when listings already exist")
}

var demoListings = []store.ServiceListing{
	{Name: "Pipe Pros", Category: "Plumbing", Location: "Austin", Rating: 4.7, PriceCents: 9500},
	{Name: "Drain Kings", Category: "Plumbing", Location: "Dallas", Rating: 4.5, PriceCents: 8900},
	{Name: "Sparkle Home", Category: "Cleaning", Location: "Austin", Rating: 4.9, PriceCents: 6000},
	{Name: "Fresh Start Maids", Category: "Cleaning", Location: "Houston", Rating: 4.3, PriceCents: 5500},
	{Name: "Happy Paws", Category: "Dog walking", Location: "Austin", Rating: 4.8, PriceCents: 2500},
	{Name: "Green Thumb", Category: "Gardening", Location: "Austin", Rating: 4.6, PriceCents: 4500},
	{Name: "Bright Minds", Category: "Tutoring", Location: "Dallas", Rating: 4.9, PriceCents: 4000},
	{Name: "Volt Electric", Category: "Electrician", Location: "Houston", Rating: 4.4, PriceCents: 11000},
	{Name: "Fix-It Felix", Category: "Handyman", Location: "Austin", Rating: 4.2, PriceCents: 7000},
	{Name: "Shear Genius", Category: "Hair styling", Location: "Dallas", Rating: 4.6, PriceCents: 5000},
}

// seedListings inserts demoListings unless the table already has rows and
// force is false. It returns the number of listings written.
func seedListings(ctx context.Context, s *store.Store, force bool) (int, error) {
	if !force {
		existing, err := s.ListServiceListings(ctx, &store.FindServiceListing{Limit: 1})
		if err != nil {
			return 0, errors.Wrap(err, "failed to check existing listings")
		}
		if len(existing) > 0 {
			slog.Info("service listings already present, skipping seed")
			return 0, nil
		}
	}

	for _, l := range demoListings {
		listing := l
		if _, err := s.CreateServiceListing(ctx, &listing); err != nil {
			return 0, errors.Wrapf(err, "failed to seed %q", l.Name)
		}
	}
	return len(demoListings), nil
}
