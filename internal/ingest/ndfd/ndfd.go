// Package ndfd fetches the NWS graphical forecast SOAP-style endpoint and
// routes its DWML payload through the shared dwml parser.
package ndfd

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/cache"
	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/ingest/dwml"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

const ndfdURL = "https://graphical.weather.gov/xml/SOAP_server/ndfdXMLclient.php"

// Ingestor is the C3/C7 NDFD ingestor: it tries a small set of known
// parameter shapes against the NDFD client endpoint, since different
// deployments of the service accept different lat/lon encodings.
type Ingestor struct {
	Session  *httpclient.Session
	Cache    *cache.Manager
	Days     int
	Location *time.Location
}

// SourceName identifies this ingestor.
func (n *Ingestor) SourceName() string { return model.SourceNWSNDFD }

// ndfdTimeLayout matches the original's begin/end timestamp format.
const ndfdTimeLayout = "2006-01-02T15:04:05"

// baseParams is the common query string shared by every attempt shape,
// ported from original_source/ingest/ndfd.py's `base` dict: Unit=e pins
// the response to Fahrenheit/inches so dwml's temperature branch (which
// does no unit conversion of its own) isn't silently fed Celsius.
func (n *Ingestor) baseParams(now time.Time) string {
	end := now.AddDate(0, 0, n.Days+1)
	return fmt.Sprintf(
		"product=time-series&begin=%s&end=%s&Unit=e&maxt=maxt&mint=mint&pop12=pop12&qpf=qpf&snow=snow&iceaccum=iceaccum&wx=wx&wspd=wspd&wgust=wgust",
		now.Format(ndfdTimeLayout), end.Format(ndfdTimeLayout),
	)
}

func (n *Ingestor) attemptURLs(site model.Site, now time.Time) []string {
	latLon := fmt.Sprintf("%.4f,%.4f", site.Latitude, site.Longitude)
	base := n.baseParams(now)
	return []string{
		fmt.Sprintf("%s?whichClient=NDFDgenLatLonList&lat=%.4f&lon=%.4f&%s", ndfdURL, site.Latitude, site.Longitude, base),
		fmt.Sprintf("%s?whichClient=NDFDgen&lat=%.4f&lon=%.4f&%s", ndfdURL, site.Latitude, site.Longitude, base),
		fmt.Sprintf("%s?whichClient=NDFDgenLatLonList&listLatLon=%s&%s", ndfdURL, latLon, base),
	}
}

// Fetch tries each parameter shape in turn, returning the first that
// yields a parseable DWML document; it surfaces the last attempt's error
// only if every shape fails.
func (n *Ingestor) Fetch(ctx context.Context, site model.Site) ([]model.SourceDailyRecord, error) {
	namespace := "ndfd"
	slug := fmt.Sprintf("%.4f_%.4f.xml", site.Latitude, site.Longitude)

	now := time.Now()
	if n.Location != nil {
		now = now.In(n.Location)
	}

	var lastErr error
	for i, url := range n.attemptURLs(site, now) {
		requestURL := url
		payload, err := n.Cache.ReadBytes(namespace, fmt.Sprintf("%s.%d", slug, i), func() ([]byte, error) {
			return n.Session.GetBytes(ctx, requestURL)
		})
		if err != nil {
			lastErr = err
			continue
		}
		parser := dwml.New(n.Location, n.Days)
		records, err := parser.Parse(payload, site, model.SourceNWSNDFD)
		if err != nil {
			lastErr = err
			continue
		}
		return records, nil
	}
	return nil, fmt.Errorf("ndfd: all parameter shapes failed: %w", lastErr)
}
