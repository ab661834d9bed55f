package main

import (
	"fmt"

	"github.com/nate-enders/keplemon/internal/constellation"
	"github.com/nate-enders/keplemon/internal/satellite"
	"github.com/nate-enders/keplemon/internal/tle"
	"github.com/spf13/cobra"
)

var catalogList bool

var catalogCmd = &cobra.Command{
	Use:   "catalog <file>",
	Short: "Summarise a two- or three-line element file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, con, err := loadConstellation(args[0])
		if err != nil {
			return err
		}
		v := catalogView{
			Name:       cat.Name(),
			Satellites: con.Count(),
			Skipped:    cat.Skipped(),
			Unusable:   con.Skipped(),
		}
		if catalogList {
			for _, id := range con.IDs() {
				s, _ := con.Get(id)
				v.Entries = append(v.Entries, newSatelliteView(s))
			}
		}
		return render(cmd.OutOrStdout(), v)
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogList, "list", false, "List every satellite")
}

// loadConstellation reads an element file and builds its constellation with
// the configured gravity model, worker count and search step.
func loadConstellation(path string) (*tle.Catalog, *constellation.Constellation, error) {
	model, err := app.cfg.EarthModel()
	if err != nil {
		return nil, nil, err
	}
	cat, err := tle.LoadCatalog(path, app.logger)
	if err != nil {
		return nil, nil, err
	}
	con := constellation.FromCatalog(cat, app.logger,
		constellation.WithWorkers(app.cfg.Workers),
		constellation.WithGravity(model),
		constellation.WithStep(app.cfg.Step()),
	)
	return cat, con, nil
}

func lookup(con *constellation.Constellation, id int) (*satellite.Satellite, error) {
	s, ok := con.Get(id)
	if !ok {
		return nil, fmt.Errorf("satellite %d not in %s", id, con.Name())
	}
	return s, nil
}
