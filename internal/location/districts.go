package location

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Coordinates is a map position for a district marker.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// District is a canonical or synthesized district identity.
type District struct {
	Name        string      `json:"name" yaml:"name"`
	Slug        string      `json:"slug" yaml:"slug"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Canonical   bool        `json:"canonical" yaml:"-"`
}

// DefaultCoordinates is the state centroid, used for districts we
// cannot place on the map.
var DefaultCoordinates = Coordinates{Lat: 10.8505, Lng: 76.2711}

// UnknownDistrict is returned for blank district labels.
var UnknownDistrict = District{
	Name:        FallbackDistrict,
	Slug:        "unknown-district",
	Coordinates: DefaultCoordinates,
}

// DefaultDistricts returns the fourteen Kerala districts in north-to-south order.
func DefaultDistricts() []District {
	return []District{
		{Name: "Kasaragod", Slug: "kasaragod", Coordinates: Coordinates{Lat: 12.4996, Lng: 74.9869}, Canonical: true},
		{Name: "Kannur", Slug: "kannur", Coordinates: Coordinates{Lat: 11.8745, Lng: 75.3704}, Canonical: true},
		{Name: "Wayanad", Slug: "wayanad", Coordinates: Coordinates{Lat: 11.6854, Lng: 76.1320}, Canonical: true},
		{Name: "Kozhikode", Slug: "kozhikode", Coordinates: Coordinates{Lat: 11.2588, Lng: 75.7804}, Canonical: true},
		{Name: "Malappuram", Slug: "malappuram", Coordinates: Coordinates{Lat: 11.0510, Lng: 76.0711}, Canonical: true},
		{Name: "Palakkad", Slug: "palakkad", Coordinates: Coordinates{Lat: 10.7867, Lng: 76.6548}, Canonical: true},
		{Name: "Thrissur", Slug: "thrissur", Coordinates: Coordinates{Lat: 10.5276, Lng: 76.2144}, Canonical: true},
		{Name: "Ernakulam", Slug: "ernakulam", Coordinates: Coordinates{Lat: 9.9816, Lng: 76.2999}, Canonical: true},
		{Name: "Idukki", Slug: "idukki", Coordinates: Coordinates{Lat: 9.8494, Lng: 76.9720}, Canonical: true},
		{Name: "Kottayam", Slug: "kottayam", Coordinates: Coordinates{Lat: 9.5916, Lng: 76.5222}, Canonical: true},
		{Name: "Alappuzha", Slug: "alappuzha", Coordinates: Coordinates{Lat: 9.4981, Lng: 76.3388}, Canonical: true},
		{Name: "Pathanamthitta", Slug: "pathanamthitta", Coordinates: Coordinates{Lat: 9.2648, Lng: 76.7870}, Canonical: true},
		{Name: "Kollam", Slug: "kollam", Coordinates: Coordinates{Lat: 8.8932, Lng: 76.6141}, Canonical: true},
		{Name: "Thiruvananthapuram", Slug: "thiruvananthapuram", Coordinates: Coordinates{Lat: 8.5241, Lng: 76.9366}, Canonical: true},
	}
}

type districtFile struct {
	Districts []District `yaml:"districts"`
}

// LoadDistricts reads a canonical district list from a YAML file of the form
//
//	districts:
//	  - name: Ernakulam
//	    coordinates: {lat: 9.98, lng: 76.29}
//
// Missing slugs are derived from the name. An empty path returns the defaults.
func LoadDistricts(path string) ([]District, error) {
	if path == "" {
		return DefaultDistricts(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading district file: %w", err)
	}

	var f districtFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing district file: %w", err)
	}
	if len(f.Districts) == 0 {
		return nil, fmt.Errorf("district file %s lists no districts", path)
	}

	seen := make(map[string]bool, len(f.Districts))
	out := make([]District, 0, len(f.Districts))
	for _, d := range f.Districts {
		d.Name = Clean(KindDistrict, d.Name)
		if d.Slug == "" {
			d.Slug = Slugify(d.Name)
		} else {
			d.Slug = Slugify(d.Slug)
		}
		if d.Slug == "" || seen[d.Slug] {
			continue
		}
		if d.Coordinates == (Coordinates{}) {
			d.Coordinates = DefaultCoordinates
		}
		d.Canonical = true
		seen[d.Slug] = true
		out = append(out, d)
	}
	return out, nil
}
