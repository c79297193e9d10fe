package uatparse

import "fmt"

// FIS-B product ids handled by the decoders.
const (
	ProductNOTAM          = 8
	ProductDATIS          = 9
	ProductTWIP           = 10
	ProductAIRMET         = 11
	ProductSIGMET         = 12
	ProductSUA            = 13
	ProductNexradRegional = 63
	ProductNexradConus    = 64
	ProductText           = 413
)

// Text and graphic aerodrome/airspace products the decoder knows about but
// does not decode.
var notImplementedProducts = []int{ProductNOTAM, ProductDATIS, ProductTWIP, ProductAIRMET, ProductSIGMET, ProductSUA}

var productNames = map[int]string{
	0:   "METAR",
	1:   "TAF",
	2:   "SIGMET",
	3:   "Conv SIGMET",
	4:   "AIRMET",
	5:   "PIREP",
	6:   "Severe Wx",
	7:   "Winds Aloft",
	8:   "NOTAM",       // NOTAM (including TFRs) and service status
	9:   "D-ATIS",      // Aerodrome and airspace, D-ATIS
	10:  "Terminal Wx", // Aerodrome and airspace, TWIP
	11:  "AIRMET",
	12:  "SIGMET",
	13:  "SUA",
	20:  "METAR",
	21:  "TAF",
	22:  "SIGMET",
	23:  "Conv SIGMET",
	24:  "AIRMET",
	25:  "PIREP",
	26:  "Severe Wx",
	27:  "Winds Aloft",
	51:  "NEXRAD",
	52:  "NEXRAD",
	53:  "NEXRAD",
	54:  "NEXRAD",
	55:  "NEXRAD",
	56:  "NEXRAD",
	57:  "NEXRAD",
	58:  "NEXRAD",
	59:  "NEXRAD",
	60:  "NEXRAD",
	61:  "NEXRAD",
	62:  "NEXRAD",
	63:  "NEXRAD Regional",
	64:  "NEXRAD CONUS",
	81:  "Tops",
	82:  "Tops",
	83:  "Tops",
	101: "Lightning",
	102: "Lightning",
	151: "Lightning",
	201: "Surface",
	202: "Surface",
	254: "G-AIRMET",
	351: "Time",
	352: "Status",
	353: "Status",
	401: "Imagery",
	402: "Text",
	403: "Vector Imagery",
	404: "Symbols",
	405: "Text",
	411: "Text",
	412: "Symbols",
	413: "Text",
}

// ProductName returns a short display name for a FIS-B product id.
func ProductName(id int) string {
	if name, ok := productNames[id]; ok {
		return name
	}
	if id == 600 || (id >= 2000 && id <= 2005) {
		return "Custom/Test"
	}
	return fmt.Sprintf("Unknown (%d)", id)
}
