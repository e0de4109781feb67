package models

import "testing"

func TestBucketForTimeframe(t *testing.T) {
	cases := map[string]HorizonBucket{
		"":          HorizonMedium,
		"15m":       HorizonShort,
		"4h":        HorizonShort,
		"1D":        HorizonShort,
		"1W":        HorizonMedium,
		"3M":        HorizonLong,
		"1Y":        HorizonLong,
		"intraday":  HorizonShort,
		"Scalp":     HorizonShort,
		"daily":     HorizonShort,
		"medium":    HorizonMedium,
		"swing":     HorizonMedium,
		"weekly":    HorizonMedium,
		"position":  HorizonLong,
		"monthly":   HorizonLong,
		" LONG ":    HorizonLong,
		"someday":   HorizonMedium,
		"W":         HorizonMedium,
		"unknownTF": HorizonMedium,
	}
	for tf, want := range cases {
		if got := BucketForTimeframe(tf); got != want {
			t.Fatalf("BucketForTimeframe(%q) = %s, want %s", tf, got, want)
		}
	}
}
