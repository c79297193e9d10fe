package modes

import "math"

const (
	cprMax  = 131072.0 // 2^17
	nz      = 15
	dLatEv  = 360.0 / (4 * nz)
	dLatOdd = 360.0 / (4*nz - 1)
)

// CPRFrame is one half of an even/odd position pair.
type CPRFrame struct {
	Odd    bool
	LatCPR uint32
	LonCPR uint32
}

// NL returns the number of longitude zones at lat.
func NL(lat float64) int {
	lat = math.Abs(lat)
	switch {
	case lat < 1e-9:
		return 59
	case lat > 87:
		return 1
	case lat == 87:
		return 2
	}
	a := 1 - math.Cos(math.Pi/(2*nz))
	b := math.Pow(math.Cos(math.Pi/180*lat), 2)
	return int(math.Floor(2 * math.Pi / math.Acos(1-a/b)))
}

func cprMod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func cprN(lat float64, odd bool) int {
	n := NL(lat)
	if odd {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// GlobalDecode resolves an even/odd pair to a position. The most recently
// received frame determines which half's longitude is used. ok is false when
// the pair straddles a latitude zone boundary or is out of range.
func GlobalDecode(even, odd CPRFrame, oddIsNewer bool) (lat, lon float64, ok bool) {
	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	j := int(math.Floor((59*lat0-60*lat1)/cprMax + 0.5))
	rlat0 := dLatEv * (float64(cprMod(j, 60)) + lat0/cprMax)
	rlat1 := dLatOdd * (float64(cprMod(j, 59)) + lat1/cprMax)
	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}
	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}
	if NL(rlat0) != NL(rlat1) {
		return 0, 0, false
	}

	if oddIsNewer {
		nl := NL(rlat1)
		ni := cprN(rlat1, true)
		m := int(math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5))
		lon = 360.0 / float64(ni) * (float64(cprMod(m, ni)) + lon1/cprMax)
		lat = rlat1
	} else {
		nl := NL(rlat0)
		ni := cprN(rlat0, false)
		m := int(math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5))
		lon = 360.0 / float64(ni) * (float64(cprMod(m, ni)) + lon0/cprMax)
		lat = rlat0
	}
	lon -= math.Floor((lon+180)/360) * 360
	return lat, lon, true
}
