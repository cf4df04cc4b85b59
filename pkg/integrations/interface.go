package integrations

import "github.com/kerbaras/mdex/pkg/data"

// Exporter compiles downloaded chapter directories into a single output file
// and returns its path.
type Exporter interface {
	Export(manga *data.Manga, chapters []*data.Chapter) (string, error)
}
