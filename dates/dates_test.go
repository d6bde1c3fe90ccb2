package dates

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "rfc5322 with negative offset",
			input: "Thu, 9 Jun 2005 10:30:00 -0400",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "double dash offset",
			input: "Thu, 9 Jun 2005 10:30:00 --0400",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "garbage glued to offset",
			input: "Wed, 01 Dec 2004 13:31:39 +0000.395-508222",
			want:  "2004-12-01 13:31:39",
		},
		{
			name:  "parenthetical zone comment",
			input: "Thu, 9 Jun 2005 10:30:00 -0400 (Eastern Daylight Time)",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "bare zone long name",
			input: "Thu, 9 Jun 2005 10:30:00 Eastern Daylight Time",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "gmt offset with colon",
			input: "Mon, 5 Apr 2021 10:10:10 GMT-07:00",
			want:  "2021-04-05 17:10:10",
		},
		{
			name:  "gmt offset without colon",
			input: "Mon, 5 Apr 2021 10:10:10 GMT+0530",
			want:  "2021-04-05 04:40:10",
		},
		{
			name:  "named zone abbreviation",
			input: "9 Jun 2005 10:30:00 EDT",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "unknown zone name falls back to utc",
			input: "Thu, 9 Jun 2005 10:30:00 XYZ",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "three digit offset",
			input: "Mon, 5 Apr 2021 10:10:10 +530",
			want:  "2021-04-05 04:40:10",
		},
		{
			name:  "single digit hour",
			input: "Tue, 02 Mar 2021 9:47:11 -0500",
			want:  "2021-03-02 14:47:11",
		},
		{
			name:  "missing comma after weekday",
			input: "Thu 9 Jun 2005 10:30:00 +0000",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "full day and month names",
			input: "Thursday, 9 June 2005 10:30:00 +0200",
			want:  "2005-06-09 08:30:00",
		},
		{
			name:  "thurs abbreviation",
			input: "Thurs, 04 Aug 2005 10:45:33 -0400",
			want:  "2005-08-04 14:45:33",
		},
		{
			name:  "glued meridiem before offset",
			input: "Mon, 5 Apr 2021 10:10:10PM+0200",
			want:  "2021-04-05 08:10:10",
		},
		{
			name:  "ut zone",
			input: "Wed, 15 Sep 2004 13:30:00 UT",
			want:  "2004-09-15 13:30:00",
		},
		{
			name:  "gmt zone name",
			input: "Fri, 10 Jun 2005 11:00:00 GMT",
			want:  "2005-06-10 11:00:00",
		},
		{
			name:  "no timezone treated as utc",
			input: "Mon, 2 Jan 2006 15:04:05",
			want:  "2006-01-02 15:04:05",
		},
		{
			name:  "ctime form",
			input: "Thu Jun  9 10:30:00 2005",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "slash date with twelve hour clock",
			input: "6/9/2005 2:30:00 PM",
			want:  "2005-06-09 14:30:00",
		},
		{
			name:  "slash date only",
			input: "6/9/2005",
			want:  "2005-06-09 00:00:00",
		},
		{
			name:  "iso with zulu",
			input: "2005-06-09T10:30:00Z",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "iso with colon offset",
			input: "2005-06-09T10:30:00+02:00",
			want:  "2005-06-09 08:30:00",
		},
		{
			name:  "iso space separated",
			input: "2005-06-09 10:30:00",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "two digit year low pivots to 2000s",
			input: "Thu, 9 Jun 05 10:30:00 +0000",
			want:  "2005-06-09 10:30:00",
		},
		{
			name:  "two digit year high pivots to 1900s",
			input: "Fri, 9 Jun 72 10:30:00 +0000",
			want:  "1972-06-09 10:30:00",
		},
		{
			name:  "month day quoted year",
			input: "Jun 09 '05",
			want:  "2005-06-09 00:00:00",
		},
		{
			name:  "month day quoted year high",
			input: "Jun 09 '72",
			want:  "1972-06-09 00:00:00",
		},
		{
			name:  "surrounding whitespace",
			input: "   Thu, 9 Jun 2005 10:30:00 +0000   ",
			want:  "2005-06-09 10:30:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if !got.OK {
				t.Fatalf("Normalize(%q) did not parse", tt.input)
			}
			if got.String() != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestNormalizeUnparsable(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"not-a-date",
		"yesterday afternoon",
		"Fri, 31 Feb 2006 10:00:00 +0000",
		"99/99/9999",
	}

	for _, input := range tests {
		got := Normalize(input)
		if got.OK {
			t.Errorf("Normalize(%q) = %q, expected unparsed", input, got.String())
		}
		if got.String() != "" {
			t.Errorf("Unparsed date renders %q, expected empty", got.String())
		}
	}
}

func TestNormalizeDoubleDashEquivalence(t *testing.T) {
	a := Normalize("Tue, 02 Mar 2021 09:47:11 --0400")
	b := Normalize("Tue, 02 Mar 2021 09:47:11 -0400")
	if !a.OK || !b.OK {
		t.Fatal("Both variants should parse")
	}
	if !a.UTC.Equal(b.UTC) {
		t.Errorf("Double dash offset diverges: %v vs %v", a.UTC, b.UTC)
	}
}

func TestNormalizeProducesUTC(t *testing.T) {
	got := Normalize("Thu, 9 Jun 2005 10:30:00 -0500")
	if !got.OK {
		t.Fatal("Expected parse")
	}
	want := time.Date(2005, 6, 9, 15, 30, 0, 0, time.UTC)
	if !got.UTC.Equal(want) {
		t.Errorf("Got %v, want %v", got.UTC, want)
	}
	if got.UTC.Location() != time.UTC {
		t.Errorf("Result not anchored to UTC: %v", got.UTC.Location())
	}
}

func TestCanonicalFormSortsChronologically(t *testing.T) {
	earlier := Normalize("Thu, 9 Jun 2005 23:59:59 +0000")
	later := Normalize("Fri, 10 Jun 2005 00:00:01 +0000")
	if !earlier.OK || !later.OK {
		t.Fatal("Both should parse")
	}
	if !(earlier.String() < later.String()) {
		t.Errorf("Lexical order broken: %q not before %q", earlier.String(), later.String())
	}
}
