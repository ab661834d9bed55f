package transform

import (
	"math"

	"github.com/nate-enders/keplemon/internal/earth"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Geodetic is a position on or above the WGS-84 ellipsoid.
type Geodetic struct {
	LatDeg, LonDeg float64
	AltKm          float64
}

// Observer holds a ground site's geodetic location together with its
// precomputed Earth-fixed position, reused across many look-angle queries.
type Observer struct {
	Geodetic
	LatRad, LonRad float64
	EFG            [3]float64 // km
}

// LookAngles holds azimuth, elevation, and range from observer to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// NewObserver creates an Observer from geodetic coordinates. Latitude and
// longitude are in degrees, altitude in km above the ellipsoid.
func NewObserver(latDeg, lonDeg, altKm float64) Observer {
	g := Geodetic{LatDeg: latDeg, LonDeg: lonDeg, AltKm: altKm}
	return Observer{
		Geodetic: g,
		LatRad:   latDeg * degToRad,
		LonRad:   lonDeg * degToRad,
		EFG:      GeodeticToEFG(g),
	}
}

// GeodeticToEFG converts a geodetic point to Earth-fixed km.
func GeodeticToEFG(g Geodetic) [3]float64 {
	a := earth.WGS84.EquatorialRadius
	e2 := earth.WGS84.EccentricitySquared()

	sinLat, cosLat := math.Sincos(g.LatDeg * degToRad)
	sinLon, cosLon := math.Sincos(g.LonDeg * degToRad)

	// Radius of curvature in the prime vertical.
	N := a / math.Sqrt(1-e2*sinLat*sinLat)

	return [3]float64{
		(N + g.AltKm) * cosLat * cosLon,
		(N + g.AltKm) * cosLat * sinLon,
		(N*(1-e2) + g.AltKm) * sinLat,
	}
}

// EFGToGeodetic converts Earth-fixed km to geodetic coordinates using the
// iterative Bowring method. Converges in 2-3 iterations for Earth orbits.
func EFGToGeodetic(r [3]float64) Geodetic {
	a := earth.WGS84.EquatorialRadius
	e2 := earth.WGS84.EccentricitySquared()
	x, y, z := r[0], r[1], r[2]

	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-e2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := a / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(z+e2*N*sinLat, p)
	}

	sinLat, cosLat := math.Sincos(lat)
	N := a / math.Sqrt(1-e2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-e2)
	}

	return Geodetic{LatDeg: lat * radToDeg, LonDeg: lon * radToDeg, AltKm: alt}
}

// LookAnglesTo computes azimuth, elevation, and range from the observer to
// a satellite position given in Earth-fixed km.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
func (o Observer) LookAnglesTo(sat [3]float64) LookAngles {
	rx := sat[0] - o.EFG[0]
	ry := sat[1] - o.EFG[1]
	rz := sat[2] - o.EFG[2]

	sinLat, cosLat := math.Sincos(o.LatRad)
	sinLon, cosLon := math.Sincos(o.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)
	el := math.Asin(math.Max(-1, math.Min(1, zenith/rangeKm)))

	// In SEZ, North = -South direction.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * radToDeg,
		ElevationDeg: el * radToDeg,
		RangeKm:      rangeKm,
	}
}

// TEMEState returns the observer's inertial state at a GMST angle. The
// velocity is the Earth-rotation velocity of the site.
func (o Observer) TEMEState(gmst float64) StateVector {
	return EFGToTEMEWithGMST(StateVector{Position: o.EFG}, gmst)
}
