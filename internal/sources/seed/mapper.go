package seed

import (
	"fmt"

	"github.com/MrSnakeDoc/qrlink/internal/links"
)

// Rejected is an entry the mapper refused, with the reason.
type Rejected struct {
	Index int
	Slug  string
	Err   error
}

// Map turns seed entries into create inputs. Invalid and repeated slugs are
// returned in rejected instead of failing the whole file.
func Map(file File) (inputs []links.CreateInput, rejected []Rejected) {
	seen := make(map[string]bool, len(file.Links))
	for i, e := range file.Links {
		if err := links.ValidateSlug(e.Slug); err != nil {
			rejected = append(rejected, Rejected{Index: i, Slug: e.Slug, Err: err})
			continue
		}
		if err := links.ValidateDestination(e.Destination); err != nil {
			rejected = append(rejected, Rejected{Index: i, Slug: e.Slug, Err: err})
			continue
		}
		if _, err := links.ParseStatus(e.Status); err != nil {
			rejected = append(rejected, Rejected{Index: i, Slug: e.Slug, Err: err})
			continue
		}
		if seen[e.Slug] {
			rejected = append(rejected, Rejected{Index: i, Slug: e.Slug, Err: fmt.Errorf("slug repeated in seed file")})
			continue
		}
		seen[e.Slug] = true

		inputs = append(inputs, links.CreateInput{
			Slug:        e.Slug,
			Destination: e.Destination,
			Status:      e.Status,
		})
	}
	return inputs, rejected
}
