// Command distance computes the distance between two coordinates without
// starting the service.
//
// Usage:
//
//	go run ./cmd/distance -from 48.8566,2.3522 -to 51.5074,-0.1278 -algorithm vincenty
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/geodesy"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "distance:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("distance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "origin as lat,lon")
	to := fs.String("to", "", "destination as lat,lon")
	algName := fs.String("algorithm", string(geodesy.Haversine), "haversine or vincenty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p1, err := domain.ParseGeoPoint(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	p2, err := domain.ParseGeoPoint(*to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}
	alg, err := geodesy.ParseAlgorithm(*algName)
	if err != nil {
		return err
	}

	km, err := geodesy.NewCalculator(alg).Distance(p1, p2)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "algorithm: %s\nkilometers: %.3f\nrounded:    %.0f km\n",
		alg, km, geodesy.RoundToNearest(km, geodesy.DefaultRoundingStep))
	return nil
}
