package photon

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mappatterns/geoprovider/internal/geo"
	"github.com/mappatterns/geoprovider/internal/geocoding"
)

// featureCollection keeps features raw so each one decodes on its own.
type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

// idNamespace derives stable ids for features that carry no OSM reference.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://photon.komoot.io"))

func toResult(f *geojson.Feature) (geocoding.Result, bool) {
	if f == nil {
		return geocoding.Result{}, false
	}
	pt, ok := f.Geometry.(orb.Point)
	if !ok || !geo.Finite(pt) {
		return geocoding.Result{}, false
	}

	name := placeName(f.Properties)
	if name == "" {
		return geocoding.Result{}, false
	}

	return geocoding.Result{
		ID:         geocoding.ResultID(ProviderID, vendorID(f.Properties, pt, name)),
		PlaceName:  name,
		Center:     pt,
		ProviderID: ProviderID,
	}, true
}

// placeName joins the populated address parts, skipping repeats.
func placeName(props geojson.Properties) string {
	street := props.MustString("street", "")
	if hn := props.MustString("housenumber", ""); street != "" && hn != "" {
		street += " " + hn
	}

	parts := []string{
		props.MustString("name", ""),
		street,
		props.MustString("city", ""),
		props.MustString("state", ""),
		props.MustString("country", ""),
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

func vendorID(props geojson.Properties, pt orb.Point, name string) string {
	osmType := props.MustString("osm_type", "")
	if osmID := props.MustFloat64("osm_id", 0); osmType != "" && osmID != 0 {
		return osmType + strconv.FormatFloat(osmID, 'f', -1, 64)
	}
	return uuid.NewSHA1(idNamespace, []byte(name+"|"+geo.Format(pt))).String()
}
