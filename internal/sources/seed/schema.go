package seed

// Entry is one link in the seed file.
type Entry struct {
	Slug        string `yaml:"slug"`
	Destination string `yaml:"destination"`
	Status      string `yaml:"status"`
}

// File is the root of the seed YAML:
//
//	links:
//	  - slug: promo
//	    destination: https://example.com/sale
//	    status: active
type File struct {
	Links []Entry `yaml:"links"`
}
