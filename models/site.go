package models

// Project/site tags a customer record may be allocated under. The set is
// fixed; unrecognized tags are rejected at intake.
const (
	SiteGwangGyo   = "gwanggyo"
	SiteDongTan    = "dongtan"
	SitePangyo     = "pangyo"
	SiteUnjeong    = "unjeong"
	SiteGimpo      = "gimpo"
	SiteSongdo     = "songdo"
	SiteCheongna   = "cheongna"
	SiteWirye      = "wirye"
	SiteGodeok     = "godeok"
	SiteHeadOffice = "head_office"
)

var allowedSites = map[string]bool{
	SiteGwangGyo:   true,
	SiteDongTan:    true,
	SitePangyo:     true,
	SiteUnjeong:    true,
	SiteGimpo:      true,
	SiteSongdo:     true,
	SiteCheongna:   true,
	SiteWirye:      true,
	SiteGodeok:     true,
	SiteHeadOffice: true,
}

// IsAllowedSite reports whether the tag belongs to the fixed site set.
func IsAllowedSite(site string) bool {
	return allowedSites[site]
}
