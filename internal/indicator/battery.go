package indicator

// Offsets is the fixed set of minute offsets the engine reads back for
// every bucket, in one history_window call.
var Offsets = []int{0, 3, 6, 9, 12, 60, 180, 480, 1440}

// Indicator codes, drawn from the closed set fixed at build time.
const (
	PriceChange3M           = "PRICE_CHANGE_3M"
	PriceChange6M           = "PRICE_CHANGE_6M"
	PriceChange12M          = "PRICE_CHANGE_12M"
	PriceChange24H          = "PRICE_CHANGE_24H"
	VolumeChange1H          = "VOLUME_CHANGE_1H"
	VolumeChange3H          = "VOLUME_CHANGE_3H"
	VolumeChange8H          = "VOLUME_CHANGE_8H"
	VolumeChange24H         = "VOLUME_CHANGE_24H"
	VolumeChange3M          = "VOLUME_CHANGE_3M"
	VolumeChange6M          = "VOLUME_CHANGE_6M"
	VolumeChange9M          = "VOLUME_CHANGE_9M"
	VolumeChangeRatio3M     = "VOLUME_CHANGE_RATIO_3M"
	AvgVolume3M24H          = "AVG_VOLUME_3M_24H"
	CapitalInflowIntensity3M = "CAPITAL_INFLOW_INTENSITY_3M"
)

// timeframes maps each indicator to its short enumerated tag.
var timeframes = map[string]string{
	PriceChange3M:            "3m",
	PriceChange6M:            "6m",
	PriceChange12M:           "12m",
	PriceChange24H:           "24h",
	VolumeChange1H:           "1h",
	VolumeChange3H:           "3h",
	VolumeChange8H:           "8h",
	VolumeChange24H:          "24h",
	VolumeChange3M:           "3m",
	VolumeChange6M:           "6m",
	VolumeChange9M:           "9m",
	VolumeChangeRatio3M:      "3m",
	AvgVolume3M24H:           "24h",
	CapitalInflowIntensity3M: "3m",
}

// Timeframe returns the short tag stored alongside an indicator's value.
func Timeframe(indicatorName string) string {
	return timeframes[indicatorName]
}
