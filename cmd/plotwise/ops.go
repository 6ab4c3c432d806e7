package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/service"
)

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	var (
		landType string
		area     float64
		city     string
		price    int64
		features []string
	)

	cmd := &cobra.Command{
		Use:   "describe [listing-id]",
		Short: "Write a selling description for a listing or a draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			p := models.DescriptionParams{
				Type:     models.LandType(landType),
				Area:     area,
				City:     city,
				Price:    price,
				Features: features,
			}
			if len(args) == 1 {
				l, err := a.listing(args[0])
				if err != nil {
					return err
				}
				p = models.DescriptionParamsFor(l)
			} else if city == "" || area <= 0 {
				return fmt.Errorf("either a listing id or --city and --area are required")
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.svc.WriteDescription(cmd.Context(), p))
			return nil
		},
	}

	cmd.Flags().StringVar(&landType, "type", string(models.LandResidential), "land type")
	cmd.Flags().Float64Var(&area, "area", 0, "area in square feet")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().Int64Var(&price, "price", 0, "asking price in INR")
	cmd.Flags().StringSliceVar(&features, "feature", nil, "notable feature (repeatable)")
	return cmd
}

func newRiskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "risk <listing-id>",
		Short: "Assess the purchase risk of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			l, err := a.listing(args[0])
			if err != nil {
				return err
			}
			r := a.svc.AssessRisk(cmd.Context(), l)
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, r)
			}

			fmt.Fprintf(out, "%s\n", l.Title)
			fmt.Fprintf(out, "Score:   %d/100 (%s risk)\n", r.Score, r.Band())
			fmt.Fprintf(out, "Summary: %s\n", r.Summary)
			for _, risk := range r.Risks {
				fmt.Fprintf(out, "  - %s\n", risk)
			}
			if r.Degraded {
				fmt.Fprintln(out, "(fallback result: live analysis unavailable)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// buildingFlags are the structure parameters shared by estimate and visualize.
type buildingFlags struct {
	params   models.BuildingParams
	kind     string
	panorama bool
	force    bool
}

func (f *buildingFlags) register(cmd *cobra.Command) {
	f.params = models.DefaultBuildingParams()
	cmd.Flags().StringVar(&f.kind, "building", string(f.params.BuildingType), "building type")
	cmd.Flags().StringVar(&f.params.Style, "style", f.params.Style, "architectural style")
	cmd.Flags().IntVar(&f.params.Floors, "floors", f.params.Floors, "number of floors")
	cmd.Flags().IntVar(&f.params.FootprintCoverage, "coverage", f.params.FootprintCoverage, "footprint coverage percent")
	cmd.Flags().IntVar(&f.params.SetbackDistance, "setback", f.params.SetbackDistance, "setback distance in feet")
	cmd.Flags().BoolVar(&f.panorama, "panorama", false, "render a 360 panorama")
	cmd.Flags().BoolVar(&f.force, "force", false, "bypass any cached result")
}

func (f *buildingFlags) resolve() models.BuildingParams {
	p := f.params
	p.BuildingType = models.BuildingType(f.kind)
	if f.panorama {
		p.ViewMode = models.ViewPanorama
	}
	return p
}

func newEstimateCmd(opts *rootOptions) *cobra.Command {
	var (
		flags   buildingFlags
		quality string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate <listing-id>",
		Short: "Estimate the development budget of building on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			l, err := a.listing(args[0])
			if err != nil {
				return err
			}
			est := a.svc.EstimateCost(cmd.Context(), l, flags.resolve(), models.ParseQuality(quality), flags.force)
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, est)
			}

			fmt.Fprintf(out, "%s (%s quality)\n", l.Title, est.Quality)
			fmt.Fprintf(out, "  Land price:    %s\n", inr(est.BasePrice))
			fmt.Fprintf(out, "  Construction:  %s\n", inrRange(est.Construction))
			fmt.Fprintf(out, "  Legal:         %s\n", inrRange(est.Legal))
			fmt.Fprintf(out, "  Utilities:     %s\n", inrRange(est.Utility))
			fmt.Fprintf(out, "  Total:         %s\n", inrRange(est.Total))
			if est.Degraded {
				fmt.Fprintln(out, "(fallback result: component estimate unavailable)")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&quality, "quality", string(models.QualityStandard), "Economy, Standard or Premium")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newVisualizeCmd(opts *rootOptions) *cobra.Command {
	var (
		flags  buildingFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "visualize <listing-id>",
		Short: "Render a concept image of a building on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			l, err := a.listing(args[0])
			if err != nil {
				return err
			}
			v := a.svc.Visualize(cmd.Context(), l, flags.resolve(), flags.force)
			if v == nil {
				return fmt.Errorf("no visualization available for listing %s", l.ID)
			}

			path := output
			if path == "" {
				path = "listing-" + l.ID + imageExt(v.MIMEType)
			}
			if err := os.WriteFile(path, v.Data, 0644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(v.Data))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default listing-<id>.<ext>)")
	return cmd
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price <listing-id>",
		Short: "Compare a listing's price against its locality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			l, err := a.listing(args[0])
			if err != nil {
				return err
			}
			p := service.AnalyzePrice(l)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", l.Title, p.Status)
			fmt.Fprintf(out, "  This listing:    ₹%.0f/sqft\n", p.PricePerSqFt)
			fmt.Fprintf(out, "  %s avg:  ₹%.0f/sqft\n", l.Location.City, p.CityAvg)
			fmt.Fprintf(out, "  Locality avg:    ₹%.0f/sqft (%+.1f%%)\n", p.LocalityAvg, p.DiffPercentage)
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find listings matching a natural language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			query := strings.Join(args, " ")
			matches := a.svc.Search(cmd.Context(), query, a.catalog.Subset(ids))
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matching listings.")
				return nil
			}
			for _, l := range a.catalog.Subset(matches) {
				fmt.Fprintf(out, "%-4s %-40s %-12s %s\n", l.ID, l.Title, l.Location.City, inr(l.Price))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "restrict the search to these listing ids")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func imageExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// inr formats whole rupees with Indian digit grouping, e.g. ₹45,00,000.
func inr(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	s := fmt.Sprintf("%d", v)
	if len(s) <= 3 {
		return sign + "₹" + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}

func inrRange(r models.Range) string {
	return inr(r.Min) + " - " + inr(r.Max)
}
