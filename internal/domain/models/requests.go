package models

// Requests for report HTTP endpoints and Kafka intake. Defined in domain for consistency and reuse.

type BuildReportRequest struct {
	RawText       string  `json:"rawText" validate:"required"`
	AnchorPrice   float64 `json:"anchorPrice" validate:"gte=0"`
	Symbol        string  `json:"symbol" validate:"max=64"`
	MarketSegment string  `json:"marketSegment" default:"US_EQUITY" validate:"oneof=CRYPTO US_EQUITY A_SHARE FOREX"`
	Timeframe     string  `json:"timeframe" default:"1D" validate:"max=16"`
}

type GenerateReportRequest struct {
	Symbol        string  `json:"symbol" validate:"required,max=64"`
	AnchorPrice   float64 `json:"anchorPrice" validate:"gte=0"`
	MarketSegment string  `json:"marketSegment" default:"US_EQUITY" validate:"oneof=CRYPTO US_EQUITY A_SHARE FOREX"`
	Timeframe     string  `json:"timeframe" default:"1D" validate:"max=16"`
	// Image is an optional chart screenshot, base64 encoded.
	Image     string `json:"image,omitempty"`
	ImageMIME string `json:"imageMime,omitempty" default:"image/png"`
}

type ResolveSymbolRequest struct {
	Query string `query:"q" json:"q" validate:"required,max=64"`
}

type AuditQueryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"max=64"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
