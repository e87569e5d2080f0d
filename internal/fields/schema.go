// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import "slices"

// Column names referenced outside the table.
const (
	ColPublicationType = "Publication Type"
	ColORCIDs          = "ORCIDs"
	ColUT              = "UT (Unique WOS ID)"
	ColDOILink         = "DOI Link"
	ColRecordLink      = "Web of Science Record"
)

// AllHeaders is the WoS Core Collection export header list in export order.
var AllHeaders = []string{
	"Publication Type", "Authors", "Book Authors", "Book Editors", "Book Group Authors",
	"Author Full Names", "Book Author Full Names", "Group Authors", "Article Title",
	"Source Title", "Book Series Title", "Book Series Subtitle", "Language",
	"Document Type", "Conference Title", "Conference Date", "Conference Location",
	"Conference Sponsor", "Conference Host", "Author Keywords", "Keywords Plus", "Abstract",
	"Addresses", "Affiliations", "Reprint Addresses", "Email Addresses", "Researcher Ids",
	"ORCIDs", "Funding Orgs", "Funding Name Preferred", "Funding Text", "Cited References",
	"Cited Reference Count", "Times Cited, WoS Core", "Times Cited, All Databases",
	"180 Day Usage Count", "Since 2013 Usage Count", "Publisher", "Publisher City",
	"Publisher Address", "ISSN", "eISSN", "ISBN", "Journal Abbreviation",
	"Journal ISO Abbreviation", "Publication Date", "Publication Year", "Volume", "Issue",
	"Part Number", "Supplement", "Special Issue", "Meeting Abstract", "Start Page",
	"End Page", "Article Number", "DOI", "DOI Link", "Book DOI", "Early Access Date",
	"Number of Pages", "WoS Categories", "Web of Science Index", "Research Areas",
	"IDS Number", "Pubmed Id", "Open Access Designations", "Highly Cited Status",
	"Hot Paper Status", "Date of Export", "UT (Unique WOS ID)", "Web of Science Record",
}

// NeverHeaders are Core export headers the Starter API cannot populate.
var NeverHeaders = []string{
	"Book Series Title", "Book Series Subtitle", "Language",
	"Conference Title", "Conference Date", "Conference Location", "Conference Sponsor", "Conference Host",
	"Keywords Plus", "Abstract", "Addresses", "Affiliations", "Reprint Addresses", "Email Addresses",
	"Funding Orgs", "Funding Name Preferred", "Funding Text",
	"Cited References", "Cited Reference Count",
	"Times Cited, All Databases", "180 Day Usage Count", "Since 2013 Usage Count",
	"Publisher", "Publisher City", "Publisher Address",
	"Journal Abbreviation", "Journal ISO Abbreviation", "Part Number", "Book DOI", "Early Access Date",
	"WoS Categories", "Web of Science Index", "Research Areas", "IDS Number",
	"Open Access Designations", "Highly Cited Status", "Hot Paper Status",
}

// Unavailable reports whether header is on the never-populated list.
func Unavailable(header string) bool {
	return slices.Contains(NeverHeaders, header)
}

// FullHeaders returns the full sheet schema. Without coreLayout the
// unavailable headers are dropped; with it they stay in place so the sheet
// lines up column for column with a Core export.
func FullHeaders(coreLayout bool) []string {
	if coreLayout {
		return slices.Clone(AllHeaders)
	}
	out := make([]string, 0, len(AllHeaders))
	for _, h := range AllHeaders {
		if !Unavailable(h) {
			out = append(out, h)
		}
	}
	return out
}

// SubsetHeaders returns the reduced schema: the full schema without
// Publication Type and ORCIDs, with the UT column moved first.
func SubsetHeaders() []string {
	out := []string{ColUT}
	for _, h := range FullHeaders(false) {
		if h == ColPublicationType || h == ColORCIDs || h == ColUT {
			continue
		}
		out = append(out, h)
	}
	return out
}

// HyperlinkColumns returns the columns whose URLs are rendered as links.
// Above threshold records only the DOI link stays clickable.
func HyperlinkColumns(total, threshold int) []string {
	if total > threshold {
		return []string{ColDOILink}
	}
	return []string{ColDOILink, ColRecordLink}
}
