package services

import (
	"fmt"
	"math/rand"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
)

const sampleSeed = 42

var (
	sampleRegions = []string{"India", "US", "EMEA", "APJC"}
	sampleStages  = []string{"Pipeline", "Proposal", "Commit", "Won"}
)

// GenerateSampleDataset builds the fixed-seed demo report used when no file
// has been uploaded: 50 opportunities with account, region, stage, deal value
// and close week. Identical on every call.
func GenerateSampleDataset() *models.Dataset {
	rng := rand.New(rand.NewSource(sampleSeed))

	ds := &models.Dataset{
		Name:    "sample",
		Columns: []string{"Account", "Region", "Stage", "Deal Value", "Close Week"},
	}
	for i := 1; i <= 50; i++ {
		ds.Rows = append(ds.Rows, []string{
			fmt.Sprintf("Account %d", i),
			sampleRegions[rng.Intn(len(sampleRegions))],
			sampleStages[rng.Intn(len(sampleStages))],
			fmt.Sprintf("%.1f", 1.0+rng.Float64()*14.0),
			fmt.Sprintf("%d", 1+rng.Intn(13)),
		})
	}
	return ds
}
